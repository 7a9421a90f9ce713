package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/boolnetwork/brc20-oracle-solana/oracle"
	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/boolnetwork/brc20-oracle-solana/txbuild"
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli"
	"lukechampine.com/uint128"
)

const (
	seedName      = "seed"
	payerName     = "payer"
	changeIDName  = "change_id"
	signerName    = "signer"
	counterName   = "counter"
	heightName    = "height"
	tickName      = "tick"
	networkName   = "network"
	addrTypeName  = "addr_type"
	ownerKeyName  = "owner_key"
	tweakHashName = "tweak_hash"
	uidName       = "uid"
	amountName    = "amount"
	recordName    = "record"
	recordHexName = "record_hex"
)

var keygenCommand = cli.Command{
	Name:      "keygen",
	ShortName: "k",
	Usage:     "Generate a fresh committee keypair",
	Action:    keygen,
}

func keygen(_ *cli.Context) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	pubkey, err := runtime.PubkeyFromBytes(pub)
	if err != nil {
		return err
	}

	fmt.Printf("seed:   %x\n", priv.Seed())
	fmt.Printf("pubkey: %v\n", pubkey)
	return nil
}

var committeeAddrCommand = cli.Command{
	Name:   "committee-addr",
	Usage:  "Derive the committee record address",
	Action: committeeAddr,
}

func committeeAddr(ctx *cli.Context) error {
	programID, err := programID(ctx)
	if err != nil {
		return err
	}

	addr, bump, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return err
	}
	fmt.Printf("address: %v (bump %d)\n", addr, bump)
	return nil
}

var assetKeyFlags = []cli.Flag{
	cli.Uint64Flag{
		Name:  heightName,
		Usage: "the block height of the balance snapshot",
	},
	cli.StringFlag{
		Name:  tickName,
		Usage: "the four character ticker, e.g. ordi",
	},
	cli.UintFlag{
		Name:  networkName,
		Usage: "owner network: 0 bitcoin, 1 testnet, 2 signet, 3 regtest",
	},
	cli.UintFlag{
		Name: addrTypeName,
		Usage: "owner address type: 0 p2pkh, 1 p2wpkh, " +
			"2 p2tr untweaked, 3 p2tr tweaked",
	},
	cli.StringFlag{
		Name:  ownerKeyName,
		Usage: "hex key material of the owner address",
	},
	cli.StringFlag{
		Name: tweakHashName,
		Usage: "optional hex tap tweak hash for untweaked " +
			"taproot owners",
	},
}

var assetAddrCommand = cli.Command{
	Name:   "asset-addr",
	Usage:  "Derive the asset record address for a key",
	Flags:  assetKeyFlags,
	Action: assetAddr,
}

func assetAddr(ctx *cli.Context) error {
	programID, err := programID(ctx)
	if err != nil {
		return err
	}
	key, err := parseAssetKey(ctx)
	if err != nil {
		return err
	}

	addr, bump, err := oracle.AssetAddress(programID, key)
	if err != nil {
		return err
	}
	fmt.Printf("key:     %v\n", key)
	fmt.Printf("address: %v (bump %d)\n", addr, bump)
	return nil
}

var buildSetCommitteeCommand = cli.Command{
	Name:  "build-set-committee",
	Usage: "Assemble the committee rotation instruction pair",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name: seedName,
			Usage: "hex seed of the outgoing committee key " +
				"(the payer key on bootstrap)",
		},
		cli.StringFlag{
			Name:  payerName,
			Usage: "base58 pubkey funding the record account",
		},
		cli.UintFlag{
			Name:  changeIDName,
			Usage: "the proposed change id",
		},
		cli.StringFlag{
			Name:  signerName,
			Usage: "base58 pubkey of the incoming committee",
		},
		cli.Uint64Flag{
			Name:  counterName,
			Usage: "the request counter to install",
		},
	},
	Action: buildSetCommittee,
}

func buildSetCommittee(ctx *cli.Context) error {
	programID, err := programID(ctx)
	if err != nil {
		return err
	}
	signerKey, err := parseSeed(ctx.String(seedName))
	if err != nil {
		return err
	}
	payer, err := runtime.PubkeyFromString(ctx.String(payerName))
	if err != nil {
		return err
	}
	signer, err := runtime.PubkeyFromString(ctx.String(signerName))
	if err != nil {
		return err
	}

	ixs, err := txbuild.SetCommittee(
		programID, payer, signerKey, oracle.Committee{
			ChangeID:       uint8(ctx.Uint(changeIDName)),
			Signer:         signer,
			RequestCounter: ctx.Uint64(counterName),
		},
	)
	if err != nil {
		return err
	}
	printInstructions(ixs)
	return nil
}

var buildRequestCommand = cli.Command{
	Name:  "build-request",
	Usage: "Assemble the asset open instruction",
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  payerName,
			Usage: "base58 pubkey funding the record account",
		},
	}, assetKeyFlags...),
	Action: buildRequest,
}

func buildRequest(ctx *cli.Context) error {
	programID, err := programID(ctx)
	if err != nil {
		return err
	}
	payer, err := runtime.PubkeyFromString(ctx.String(payerName))
	if err != nil {
		return err
	}
	key, err := parseAssetKey(ctx)
	if err != nil {
		return err
	}

	ixs, err := txbuild.Request(programID, payer, *key)
	if err != nil {
		return err
	}
	printInstructions(ixs)
	return nil
}

var buildInsertCommand = cli.Command{
	Name:  "build-insert",
	Usage: "Assemble the attested asset update instruction pair",
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  seedName,
			Usage: "hex seed of the committee key",
		},
		cli.Uint64Flag{
			Name:  uidName,
			Usage: "the uid stamped onto the record when opened",
		},
		cli.StringFlag{
			Name:  amountName,
			Usage: "the attested amount (decimal, up to 128 bit)",
		},
	}, assetKeyFlags...),
	Action: buildInsert,
}

func buildInsert(ctx *cli.Context) error {
	programID, err := programID(ctx)
	if err != nil {
		return err
	}
	committeeKey, err := parseSeed(ctx.String(seedName))
	if err != nil {
		return err
	}
	key, err := parseAssetKey(ctx)
	if err != nil {
		return err
	}
	amount, err := uint128.FromString(ctx.String(amountName))
	if err != nil {
		return err
	}

	ixs, err := txbuild.Insert(
		programID, committeeKey, ctx.Uint64(uidName), *key, amount,
	)
	if err != nil {
		return err
	}
	printInstructions(ixs)
	return nil
}

var decodeRecordCommand = cli.Command{
	Name:  "decode-record",
	Usage: "Decode stored record bytes",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  recordName,
			Usage: "the record type, committee or asset",
			Value: "asset",
		},
		cli.StringFlag{
			Name:  recordHexName,
			Usage: "the hex bytes stored at the record address",
		},
	},
	Action: decodeRecord,
}

func decodeRecord(ctx *cli.Context) error {
	data, err := hex.DecodeString(ctx.String(recordHexName))
	if err != nil {
		return err
	}

	switch ctx.String(recordName) {
	case "committee":
		committee, err := oracle.DecodeCommittee(data)
		if err != nil {
			return err
		}
		spew.Dump(committee)

	case "asset":
		asset, err := oracle.DecodeAsset(data)
		if err != nil {
			return err
		}
		spew.Dump(asset)

	default:
		return fmt.Errorf("unknown record type %q",
			ctx.String(recordName))
	}
	return nil
}

func programID(ctx *cli.Context) (runtime.Pubkey, error) {
	return runtime.PubkeyFromString(ctx.GlobalString(programIDName))
}

func parseSeed(seedHex string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d",
			ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func parseAssetKey(ctx *cli.Context) (*oracle.AssetKey, error) {
	tick := ctx.String(tickName)
	if len(tick) != 4 {
		return nil, fmt.Errorf("tick must be exactly 4 characters")
	}

	network, err := oracle.NetworkFromByte(uint8(ctx.Uint(networkName)))
	if err != nil {
		return nil, err
	}
	ownerKey, err := hex.DecodeString(ctx.String(ownerKeyName))
	if err != nil {
		return nil, err
	}

	var owner oracle.BtcAddress
	switch oracle.AddressVariant(ctx.Uint(addrTypeName)) {
	case oracle.AddrP2PKH:
		owner, err = oracle.NewP2PKHAddress(network, ownerKey)

	case oracle.AddrP2WPKH:
		owner, err = oracle.NewP2WPKHAddress(network, ownerKey)

	case oracle.AddrP2TRUntweaked:
		var tweakHash []byte
		if hexHash := ctx.String(tweakHashName); hexHash != "" {
			tweakHash, err = hex.DecodeString(hexHash)
			if err != nil {
				return nil, err
			}
		}
		owner, err = oracle.NewP2TRUntweakedAddress(
			network, ownerKey, tweakHash,
		)

	case oracle.AddrP2TRTweaked:
		owner, err = oracle.NewP2TRTweakedAddress(network, ownerKey)

	default:
		return nil, fmt.Errorf("unknown address type %d",
			ctx.Uint(addrTypeName))
	}
	if err != nil {
		return nil, err
	}

	key := &oracle.AssetKey{
		Height: uint32(ctx.Uint64(heightName)),
		Owner:  owner,
	}
	copy(key.Tick[:], tick)
	return key, nil
}

func printInstructions(ixs []runtime.Instruction) {
	for i, ix := range ixs {
		fmt.Printf("instruction %d:\n", i)
		fmt.Printf("  program: %v\n", ix.ProgramID)
		for _, meta := range ix.Accounts {
			fmt.Printf("  account: %v signer=%v writable=%v\n",
				meta.Pubkey, meta.IsSigner, meta.IsWritable)
		}
		fmt.Printf("  data:    %x\n", ix.Data)
	}
}

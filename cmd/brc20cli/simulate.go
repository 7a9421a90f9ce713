package main

import (
	"crypto/rand"
	"fmt"

	"github.com/boolnetwork/brc20-oracle-solana/oracle"
	"github.com/boolnetwork/brc20-oracle-solana/program"
	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/boolnetwork/brc20-oracle-solana/txbuild"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/urfave/cli"
	"lukechampine.com/uint128"
)

var simulateCommand = cli.Command{
	Name:   "simulate",
	Usage:  "Replay a full committee and asset lifecycle in memory",
	Action: simulate,
}

// simulate drives an in-memory ledger through the complete oracle
// lifecycle: committee bootstrap, opening an asset record, two attested
// balance updates and a committee rotation in between. Every state the
// chain would hold is printed along the way.
func simulate(ctx *cli.Context) error {
	programID, err := programID(ctx)
	if err != nil {
		return err
	}

	bank := program.NewBank(programID)

	payer, _, err := simKeypair()
	if err != nil {
		return err
	}
	bank.Fund(payer, 10_000_000_000)
	fmt.Printf("payer %v funded with 10 SOL\n", payer)

	// Install the genesis committee, self-signed by the incoming key.
	genesis, genesisKey, err := simKeypair()
	if err != nil {
		return err
	}
	ixs, err := txbuild.SetCommittee(
		programID, payer, genesisKey, oracle.Committee{
			ChangeID: 0,
			Signer:   genesis,
		},
	)
	if err != nil {
		return err
	}
	if err := bank.ProcessTransaction(ixs, payer); err != nil {
		return err
	}
	fmt.Printf("committee bootstrapped: %v\n", genesis)

	// Open a record for a testnet p2wpkh holder of ordi at a recent
	// snapshot height.
	ownerPriv, err := btcec.NewPrivateKey()
	if err != nil {
		return err
	}
	owner, err := oracle.NewP2WPKHAddress(
		oracle.NetworkTestnet, ownerPriv.PubKey().SerializeCompressed(),
	)
	if err != nil {
		return err
	}
	addr, err := owner.Address()
	if err != nil {
		return err
	}

	key := oracle.AssetKey{
		Height: 840_000,
		Tick:   [4]byte{'o', 'r', 'd', 'i'},
		Owner:  owner,
	}
	ixs, err = txbuild.Request(programID, payer, key)
	if err != nil {
		return err
	}
	if err := bank.ProcessTransaction(ixs, payer); err != nil {
		return err
	}
	fmt.Printf("asset record opened for %v at height %d\n",
		addr, key.Height)

	// First attested balance, written by the genesis committee under
	// the uid the record was stamped with.
	ixs, err = txbuild.Insert(
		programID, genesisKey, 0, key, uint128.From64(500),
	)
	if err != nil {
		return err
	}
	if err := bank.ProcessTransaction(ixs); err != nil {
		return err
	}
	fmt.Println("inserted balance 500 under the genesis committee")

	// Hand the committee over to a successor, authorized by the key
	// being replaced.
	successor, successorKey, err := simKeypair()
	if err != nil {
		return err
	}
	ixs, err = txbuild.SetCommittee(
		programID, payer, genesisKey, oracle.Committee{
			ChangeID:       1,
			Signer:         successor,
			RequestCounter: 1,
		},
	)
	if err != nil {
		return err
	}
	if err := bank.ProcessTransaction(ixs, payer); err != nil {
		return err
	}
	fmt.Printf("committee rotated: %v\n", successor)

	// The successor overwrites the balance, proving the handover took.
	ixs, err = txbuild.Insert(
		programID, successorKey, 0, key, uint128.From64(750),
	)
	if err != nil {
		return err
	}
	if err := bank.ProcessTransaction(ixs); err != nil {
		return err
	}
	fmt.Println("inserted balance 750 under the successor committee")

	return printRecords(bank, programID, key)
}

// printRecords decodes and prints the two records the scenario left on
// the ledger.
func printRecords(bank *program.Bank, programID runtime.Pubkey,
	key oracle.AssetKey) error {

	committeeAddr, _, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return err
	}
	committee, err := oracle.DecodeCommittee(
		bank.Account(committeeAddr).Data,
	)
	if err != nil {
		return err
	}
	fmt.Printf("final committee record: %v\n", committee)

	assetAddr, _, err := oracle.AssetAddress(programID, &key)
	if err != nil {
		return err
	}
	asset, err := oracle.DecodeAsset(bank.Account(assetAddr).Data)
	if err != nil {
		return err
	}
	fmt.Printf("final asset record:     %v\n", asset)
	return nil
}

func simKeypair() (runtime.Pubkey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return runtime.Pubkey{}, nil, err
	}
	pubkey, err := runtime.PubkeyFromBytes(pub)
	if err != nil {
		return runtime.Pubkey{}, nil, err
	}
	return pubkey, priv, nil
}

package oracle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// Network identifies the Bitcoin network an owner address belongs to.
type Network uint8

const (
	// NetworkBitcoin is classic Bitcoin mainnet.
	NetworkBitcoin Network = 0

	// NetworkTestnet is Bitcoin's testnet.
	NetworkTestnet Network = 1

	// NetworkSignet is Bitcoin's signet.
	NetworkSignet Network = 2

	// NetworkRegtest is Bitcoin's regression test network.
	NetworkRegtest Network = 3
)

// NetworkFromByte parses a network tag, rejecting unknown values.
func NetworkFromByte(b uint8) (Network, error) {
	if b > uint8(NetworkRegtest) {
		return 0, fmt.Errorf("unknown network tag %d", b)
	}
	return Network(b), nil
}

// Params returns the chain parameters of the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case NetworkTestnet:
		return &chaincfg.TestNet3Params
	case NetworkSignet:
		return &chaincfg.SigNetParams
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// String returns the network's name.
func (n Network) String() string {
	return n.Params().Name
}

// AddressVariant enumerates the supported owner address encodings.
type AddressVariant uint8

const (
	// AddrP2PKH is a legacy pay-to-pubkey-hash address, carried as the
	// 33-byte compressed public key.
	AddrP2PKH AddressVariant = 0

	// AddrP2WPKH is a segwit v0 pay-to-witness-pubkey-hash address,
	// carried as the 33-byte compressed public key.
	AddrP2WPKH AddressVariant = 1

	// AddrP2TRUntweaked is a taproot address carried as the 32-byte
	// x-only internal key followed by a 32-byte tap tweak hash, where
	// an all-zero hash means key-spend only.
	AddrP2TRUntweaked AddressVariant = 2

	// AddrP2TRTweaked is a taproot address carried directly as the
	// 32-byte tweaked x-only output key.
	AddrP2TRTweaked AddressVariant = 3
)

// payloadSize returns the fixed payload length of the variant.
func (v AddressVariant) payloadSize() (int, error) {
	switch v {
	case AddrP2PKH, AddrP2WPKH:
		return 33, nil
	case AddrP2TRUntweaked:
		return 64, nil
	case AddrP2TRTweaked:
		return 32, nil
	default:
		return 0, fmt.Errorf("unknown address variant %d", v)
	}
}

// String returns the variant's name.
func (v AddressVariant) String() string {
	switch v {
	case AddrP2PKH:
		return "p2pkh"
	case AddrP2WPKH:
		return "p2wpkh"
	case AddrP2TRUntweaked:
		return "p2tr_untweaked"
	case AddrP2TRTweaked:
		return "p2tr_tweaked"
	default:
		return "unknown"
	}
}

// BtcAddress is the owner of an attested balance, carried as raw key
// material rather than a rendered address string so that the record layout
// stays fixed-length per variant.
type BtcAddress struct {
	// Network is the Bitcoin network of the address.
	Network Network

	// Variant selects the address encoding.
	Variant AddressVariant

	// Payload holds the variant's key material: the compressed public
	// key for P2PKH and P2WPKH, the x-only internal key plus tap tweak
	// hash for the untweaked taproot form, or the tweaked x-only
	// output key for the tweaked taproot form.
	Payload []byte
}

// NewP2PKHAddress builds a legacy address from a compressed public key.
func NewP2PKHAddress(network Network, compressedKey []byte) (BtcAddress,
	error) {

	if _, err := btcec.ParsePubKey(compressedKey); err != nil {
		return BtcAddress{}, fmt.Errorf("invalid p2pkh key: %w", err)
	}
	return BtcAddress{
		Network: network,
		Variant: AddrP2PKH,
		Payload: bytes.Clone(compressedKey),
	}, nil
}

// NewP2WPKHAddress builds a segwit v0 address from a compressed public
// key.
func NewP2WPKHAddress(network Network, compressedKey []byte) (BtcAddress,
	error) {

	if _, err := btcec.ParsePubKey(compressedKey); err != nil {
		return BtcAddress{}, fmt.Errorf("invalid p2wpkh key: %w", err)
	}
	return BtcAddress{
		Network: network,
		Variant: AddrP2WPKH,
		Payload: bytes.Clone(compressedKey),
	}, nil
}

// NewP2TRUntweakedAddress builds a taproot address from an x-only internal
// key and an optional tap tweak hash. A nil tweak hash means the output
// key commits to no script tree.
func NewP2TRUntweakedAddress(network Network, internalKey,
	tweakHash []byte) (BtcAddress, error) {

	if _, err := schnorr.ParsePubKey(internalKey); err != nil {
		return BtcAddress{}, fmt.Errorf("invalid internal key: %w",
			err)
	}

	payload := make([]byte, 64)
	copy(payload, internalKey)
	if tweakHash != nil {
		if len(tweakHash) != 32 {
			return BtcAddress{}, fmt.Errorf("tap tweak hash must "+
				"be 32 bytes, got %d", len(tweakHash))
		}
		copy(payload[32:], tweakHash)
	}
	return BtcAddress{
		Network: network,
		Variant: AddrP2TRUntweaked,
		Payload: payload,
	}, nil
}

// NewP2TRTweakedAddress builds a taproot address directly from the tweaked
// x-only output key.
func NewP2TRTweakedAddress(network Network, outputKey []byte) (BtcAddress,
	error) {

	if _, err := schnorr.ParsePubKey(outputKey); err != nil {
		return BtcAddress{}, fmt.Errorf("invalid output key: %w", err)
	}
	return BtcAddress{
		Network: network,
		Variant: AddrP2TRTweaked,
		Payload: bytes.Clone(outputKey),
	}, nil
}

// Address renders the human-readable Bitcoin address for operators and
// log output. The persisted form is always the raw key material.
func (a *BtcAddress) Address() (btcutil.Address, error) {
	params := a.Network.Params()

	switch a.Variant {
	case AddrP2PKH:
		return btcutil.NewAddressPubKeyHash(
			btcutil.Hash160(a.Payload), params,
		)

	case AddrP2WPKH:
		return btcutil.NewAddressWitnessPubKeyHash(
			btcutil.Hash160(a.Payload), params,
		)

	case AddrP2TRUntweaked:
		internalKey, err := schnorr.ParsePubKey(a.Payload[:32])
		if err != nil {
			return nil, err
		}

		var outputKey *btcec.PublicKey
		tweakHash := a.Payload[32:]
		if bytes.Equal(tweakHash, make([]byte, 32)) {
			outputKey = txscript.ComputeTaprootKeyNoScript(
				internalKey,
			)
		} else {
			outputKey = txscript.ComputeTaprootOutputKey(
				internalKey, tweakHash,
			)
		}
		return btcutil.NewAddressTaproot(
			schnorr.SerializePubKey(outputKey), params,
		)

	case AddrP2TRTweaked:
		return btcutil.NewAddressTaproot(a.Payload, params)

	default:
		return nil, fmt.Errorf("unknown address variant %d",
			a.Variant)
	}
}

// Encode serializes the address into the writer.
func (a *BtcAddress) Encode(w io.Writer) error {
	size, err := a.Variant.payloadSize()
	if err != nil {
		return err
	}
	if len(a.Payload) != size {
		return fmt.Errorf("%v payload must be %d bytes, got %d",
			a.Variant, size, len(a.Payload))
	}
	if a.Network > NetworkRegtest {
		return fmt.Errorf("unknown network tag %d", a.Network)
	}

	if _, err := w.Write([]byte{byte(a.Network)}); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(a.Variant)}); err != nil {
		return err
	}
	_, err = w.Write(a.Payload)
	return err
}

// Decode deserializes the address from the reader, rejecting unknown
// network or variant tags and short payloads.
func (a *BtcAddress) Decode(r io.Reader) error {
	var tags [2]byte
	if _, err := io.ReadFull(r, tags[:]); err != nil {
		return err
	}

	network, err := NetworkFromByte(tags[0])
	if err != nil {
		return err
	}
	variant := AddressVariant(tags[1])
	size, err := variant.payloadSize()
	if err != nil {
		return err
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	a.Network = network
	a.Variant = variant
	a.Payload = payload
	return nil
}

// String renders the address for diagnostics, falling back to the variant
// name if the key material cannot be rendered.
func (a *BtcAddress) String() string {
	addr, err := a.Address()
	if err != nil {
		return fmt.Sprintf("%v(%v, invalid)", a.Variant, a.Network)
	}
	return fmt.Sprintf("%v(%v, %v)", a.Variant, a.Network, addr)
}

package oracle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func randCompressedKey(t *testing.T) []byte {
	t.Helper()

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey().SerializeCompressed()
}

func randXOnlyKey(t *testing.T) []byte {
	t.Helper()

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return schnorr.SerializePubKey(priv.PubKey())
}

// TestAddressConstructors asserts key material is validated on the way
// in.
func TestAddressConstructors(t *testing.T) {
	t.Parallel()

	garbage := bytes.Repeat([]byte{0xff}, 33)
	_, err := NewP2PKHAddress(NetworkBitcoin, garbage)
	require.Error(t, err)

	_, err = NewP2WPKHAddress(NetworkBitcoin, garbage[:32])
	require.Error(t, err)

	_, err = NewP2TRUntweakedAddress(
		NetworkBitcoin, garbage[:32], nil,
	)
	require.Error(t, err)

	_, err = NewP2TRUntweakedAddress(
		NetworkBitcoin, randXOnlyKey(t), []byte{0x01},
	)
	require.Error(t, err)

	_, err = NewP2TRTweakedAddress(NetworkBitcoin, garbage[:32])
	require.Error(t, err)

	_, err = NetworkFromByte(4)
	require.Error(t, err)
}

// TestAddressRendering asserts each variant renders to the matching
// btcutil address type with the network's prefix.
func TestAddressRendering(t *testing.T) {
	t.Parallel()

	compressed := randCompressedKey(t)
	xOnly := randXOnlyKey(t)

	p2pkh, err := NewP2PKHAddress(NetworkBitcoin, compressed)
	require.NoError(t, err)
	rendered, err := p2pkh.Address()
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressPubKeyHash{}, rendered)
	require.Equal(t, "1", rendered.String()[:1])

	p2wpkh, err := NewP2WPKHAddress(NetworkTestnet, compressed)
	require.NoError(t, err)
	rendered, err = p2wpkh.Address()
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressWitnessPubKeyHash{}, rendered)
	require.True(t, strings.HasPrefix(rendered.String(), "tb1"))

	plain, err := NewP2TRUntweakedAddress(NetworkBitcoin, xOnly, nil)
	require.NoError(t, err)
	rendered, err = plain.Address()
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressTaproot{}, rendered)
	require.True(t, strings.HasPrefix(rendered.String(), "bc1p"))

	// A script tweak must change the rendered output key.
	tweakHash := bytes.Repeat([]byte{0x42}, 32)
	committed, err := NewP2TRUntweakedAddress(
		NetworkBitcoin, xOnly, tweakHash,
	)
	require.NoError(t, err)
	renderedTweaked, err := committed.Address()
	require.NoError(t, err)
	require.NotEqual(t, rendered.String(), renderedTweaked.String())

	output, err := NewP2TRTweakedAddress(NetworkRegtest, xOnly)
	require.NoError(t, err)
	rendered, err = output.Address()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rendered.String(), "bcrt1p"))
}

// TestAddressEncodingRoundTrip asserts the wire form of every variant
// round-trips and rejects truncation.
func TestAddressEncodingRoundTrip(t *testing.T) {
	t.Parallel()

	addrs := []BtcAddress{}

	a, err := NewP2PKHAddress(NetworkBitcoin, randCompressedKey(t))
	require.NoError(t, err)
	addrs = append(addrs, a)

	a, err = NewP2WPKHAddress(NetworkRegtest, randCompressedKey(t))
	require.NoError(t, err)
	addrs = append(addrs, a)

	a, err = NewP2TRUntweakedAddress(
		NetworkSignet, randXOnlyKey(t),
		bytes.Repeat([]byte{0x07}, 32),
	)
	require.NoError(t, err)
	addrs = append(addrs, a)

	a, err = NewP2TRTweakedAddress(NetworkTestnet, randXOnlyKey(t))
	require.NoError(t, err)
	addrs = append(addrs, a)

	for _, addr := range addrs {
		addr := addr
		t.Run(addr.Variant.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, addr.Encode(&buf))

			var decoded BtcAddress
			require.NoError(
				t, decoded.Decode(bytes.NewReader(buf.Bytes())),
			)
			require.Equal(t, addr, decoded)

			truncated := buf.Bytes()[:buf.Len()-1]
			var short BtcAddress
			require.Error(
				t, short.Decode(bytes.NewReader(truncated)),
			)
		})
	}

	// Unknown tags must fail.
	var bad BtcAddress
	require.Error(t, bad.Decode(bytes.NewReader([]byte{9, 0})))
	require.Error(t, bad.Decode(bytes.NewReader([]byte{0, 9})))
}

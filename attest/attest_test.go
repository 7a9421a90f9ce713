package attest

import (
	"crypto/rand"
	"testing"

	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/require"
)

func testKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

// TestBuildAndVerify asserts a built companion instruction passes the
// structural check against the exact values it was built from.
func TestBuildAndVerify(t *testing.T) {
	t.Parallel()

	pub, priv := testKeypair(t)
	message := []byte("the exact serialized bytes of the new state")

	ix, err := BuildInstruction(priv, message)
	require.NoError(t, err)
	require.Equal(t, runtime.Ed25519ProgramID, ix.ProgramID)
	require.Empty(t, ix.Accounts)

	signature := ed25519.Sign(priv, message)
	require.NoError(t, Verify(&ix, pub, message, signature))

	// The instruction carries a host-verifiable signature.
	require.True(t, ed25519.Verify(pub, message, signature))
}

// TestVerifyRejectsTampering asserts every single-byte deviation in the
// companion instruction or the expected values is rejected.
func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	pub, priv := testKeypair(t)
	otherPub, _ := testKeypair(t)
	message := []byte("attested state bytes")
	signature := ed25519.Sign(priv, message)

	build := func() runtime.Instruction {
		ix, err := BuildInstruction(priv, message)
		require.NoError(t, err)
		return ix
	}

	testCases := []struct {
		name   string
		mutate func(ix *runtime.Instruction) (pub, msg, sig []byte)
	}{{
		name: "wrong program identity",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.ProgramID = runtime.SystemProgramID
			return pub, message, signature
		},
	}, {
		name: "unexpected account metas",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Accounts = []runtime.AccountMeta{
				{Pubkey: runtime.SystemProgramID},
			}
			return pub, message, signature
		},
	}, {
		name: "truncated data",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data = ix.Data[:len(ix.Data)-1]
			return pub, message, signature
		},
	}, {
		name: "extra data",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data = append(ix.Data, 0)
			return pub, message, signature
		},
	}, {
		name: "signature count",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data[0] = 2
			return pub, message, signature
		},
	}, {
		name: "padding byte",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data[1] = 1
			return pub, message, signature
		},
	}, {
		name: "signature offset",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data[2]++
			return pub, message, signature
		},
	}, {
		name: "cross-instruction index",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			// Pointing the signature at another instruction
			// instead of the sentinel must be rejected.
			ix.Data[4] = 0
			ix.Data[5] = 0
			return pub, message, signature
		},
	}, {
		name: "embedded pubkey byte",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data[16] ^= 0x01
			return pub, message, signature
		},
	}, {
		name: "embedded signature byte",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data[48] ^= 0x01
			return pub, message, signature
		},
	}, {
		name: "embedded message byte",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			ix.Data[112] ^= 0x01
			return pub, message, signature
		},
	}, {
		name: "expected pubkey mismatch",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			return otherPub, message, signature
		},
	}, {
		name: "expected message mismatch",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			tampered := append([]byte(nil), message...)
			tampered[0] ^= 0x01
			return pub, tampered, signature
		},
	}, {
		name: "expected signature mismatch",
		mutate: func(ix *runtime.Instruction) ([]byte, []byte,
			[]byte) {

			tampered := append([]byte(nil), signature...)
			tampered[0] ^= 0x01
			return pub, message, tampered
		},
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ix := build()
			expPub, expMsg, expSig := tc.mutate(&ix)
			require.Error(t, Verify(&ix, expPub, expMsg, expSig))
		})
	}

	// The untampered baseline still verifies.
	ix := build()
	require.NoError(t, Verify(&ix, pub, message, signature))
}

// TestBuildRejectsOversizedMessage asserts the u16 size field bounds the
// message.
func TestBuildRejectsOversizedMessage(t *testing.T) {
	t.Parallel()

	_, priv := testKeypair(t)
	_, err := BuildInstruction(priv, make([]byte, MaxMessageLen+1))
	require.Error(t, err)

	ix, err := BuildInstruction(priv, make([]byte, 128))
	require.NoError(t, err)

	pub := priv.Public().(ed25519.PublicKey)
	require.Error(
		t, Verify(&ix, pub, make([]byte, MaxMessageLen+1),
			ed25519.Sign(priv, make([]byte, 128))),
	)
}

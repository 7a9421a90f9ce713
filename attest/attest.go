// Package attest implements the detached-signature attestation protocol.
// Authorization is a two-phase check: the trusted ed25519 verification
// program executes first within the same transaction and proves, at the
// host level, that a signature is valid; the oracle program then only has
// to confirm that this companion instruction's encoded parameters match
// the exact signer, message and signature it expects. No cryptography
// happens in phase two, only byte comparison.
package attest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/cloudflare/circl/sign/ed25519"
)

const (
	// headerLen is the size of the companion instruction's offset
	// header: two u8 fields followed by seven u16 fields.
	headerLen = 16

	// pubkeyOffset is where the public key starts. The signature and
	// message follow it back to back.
	pubkeyOffset    = headerLen
	signatureOffset = pubkeyOffset + ed25519.PublicKeySize
	messageOffset   = signatureOffset + ed25519.SignatureSize

	// currentInstruction is the sentinel instruction index meaning
	// "the data lives in this same instruction", not another one.
	currentInstruction = uint16(0xffff)

	// MaxMessageLen is the largest message the companion instruction
	// can carry, bounded by its u16 size field.
	MaxMessageLen = 0xffff - messageOffset
)

var byteOrder = binary.LittleEndian

// BuildInstruction signs the message with the given key and assembles the
// verification program's instruction in its exact wire layout. Placing it
// at index 0 of a transaction makes the host verify the signature before
// the oracle program runs.
func BuildInstruction(key ed25519.PrivateKey,
	message []byte) (runtime.Instruction, error) {

	if len(message) > MaxMessageLen {
		return runtime.Instruction{}, fmt.Errorf("message of %d "+
			"bytes exceeds maximum of %d", len(message),
			MaxMessageLen)
	}

	pubkey := key.Public().(ed25519.PublicKey)
	signature := ed25519.Sign(key, message)

	data := make([]byte, 0, messageOffset+len(message))
	data = append(data,
		1, // number of signatures
		0, // padding
	)
	data = byteOrder.AppendUint16(data, signatureOffset)
	data = byteOrder.AppendUint16(data, currentInstruction)
	data = byteOrder.AppendUint16(data, pubkeyOffset)
	data = byteOrder.AppendUint16(data, currentInstruction)
	data = byteOrder.AppendUint16(data, messageOffset)
	data = byteOrder.AppendUint16(data, uint16(len(message)))
	data = byteOrder.AppendUint16(data, currentInstruction)
	data = append(data, pubkey...)
	data = append(data, signature...)
	data = append(data, message...)

	return runtime.Instruction{
		ProgramID: runtime.Ed25519ProgramID,
		Data:      data,
	}, nil
}

// Verify checks that the companion instruction proves the expected public
// key signed exactly the expected message with exactly the expected
// signature. Every deviation fails: wrong program, any account metas, any
// length mismatch, any header field off its fixed pattern, or any byte
// difference in the three spans.
func Verify(ix *runtime.Instruction, pubkey, message,
	signature []byte) error {

	if ix.ProgramID != runtime.Ed25519ProgramID {
		return fmt.Errorf("companion instruction targets %v, not "+
			"the ed25519 program", ix.ProgramID)
	}
	if len(ix.Accounts) != 0 {
		return fmt.Errorf("companion instruction touches %d "+
			"accounts, expected none", len(ix.Accounts))
	}

	if len(pubkey) != ed25519.PublicKeySize {
		return fmt.Errorf("expected pubkey must be %d bytes",
			ed25519.PublicKeySize)
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("expected signature must be %d bytes",
			ed25519.SignatureSize)
	}
	if len(message) > MaxMessageLen {
		return fmt.Errorf("expected message of %d bytes exceeds "+
			"maximum of %d", len(message), MaxMessageLen)
	}

	data := ix.Data
	if len(data) != messageOffset+len(message) {
		return fmt.Errorf("companion instruction data is %d bytes, "+
			"expected %d", len(data), messageOffset+len(message))
	}

	header := [headerLen]byte{1, 0}
	byteOrder.PutUint16(header[2:], signatureOffset)
	byteOrder.PutUint16(header[4:], currentInstruction)
	byteOrder.PutUint16(header[6:], pubkeyOffset)
	byteOrder.PutUint16(header[8:], currentInstruction)
	byteOrder.PutUint16(header[10:], messageOffset)
	byteOrder.PutUint16(header[12:], uint16(len(message)))
	byteOrder.PutUint16(header[14:], currentInstruction)
	if !bytes.Equal(data[:headerLen], header[:]) {
		return fmt.Errorf("companion instruction header does not "+
			"match the expected pattern: %x", data[:headerLen])
	}

	if !bytes.Equal(data[pubkeyOffset:signatureOffset], pubkey) {
		return fmt.Errorf("companion instruction pubkey mismatch")
	}
	if !bytes.Equal(data[signatureOffset:messageOffset], signature) {
		return fmt.Errorf("companion instruction signature mismatch")
	}
	if !bytes.Equal(data[messageOffset:], message) {
		return fmt.Errorf("companion instruction message mismatch")
	}
	return nil
}

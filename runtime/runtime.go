// Package runtime models the slice of the host ledger an on-chain program
// invocation can observe: account state handed in by the loader, the
// instructions of the surrounding transaction, and the facilities for
// creating rent-funded accounts. It deliberately contains no consensus or
// networking logic; ordering and atomicity are the host's job.
package runtime

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// PubkeyLen is the byte length of a ledger public key or derived address.
const PubkeyLen = 32

// Pubkey is a 32-byte account address. Both ed25519 public keys and
// off-curve program derived addresses share this representation.
type Pubkey [PubkeyLen]byte

// PubkeyFromBytes parses a public key from its raw 32-byte form.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var p Pubkey
	if len(b) != PubkeyLen {
		return p, fmt.Errorf("pubkey must be %d bytes, got %d",
			PubkeyLen, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// PubkeyFromString parses a public key from its base58 string form.
func PubkeyFromString(s string) (Pubkey, error) {
	return PubkeyFromBytes(base58.Decode(s))
}

// MustPubkeyFromString parses a base58 public key and panics on failure. It
// is reserved for well-known constant addresses.
func MustPubkeyFromString(s string) Pubkey {
	p, err := PubkeyFromString(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Bytes returns a copy of the key as a byte slice.
func (p Pubkey) Bytes() []byte {
	c := make([]byte, PubkeyLen)
	copy(c, p[:])
	return c
}

// IsZero reports whether the key is all zeroes.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// String returns the base58 form of the key.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Well-known host identities.
var (
	// SystemProgramID owns all fresh accounts and performs account
	// creation and lamport transfers.
	SystemProgramID = MustPubkeyFromString(
		"11111111111111111111111111111111",
	)

	// Ed25519ProgramID is the trusted signature verification facility.
	// The host executes its instructions before any program observes
	// them, failing the whole transaction on an invalid signature.
	Ed25519ProgramID = MustPubkeyFromString(
		"Ed25519SigVerify111111111111111111111111111",
	)

	// InstructionsSysvarID exposes the instruction list of the current
	// transaction to programs.
	InstructionsSysvarID = MustPubkeyFromString(
		"Sysvar1nstructions1111111111111111111111111",
	)
)

// AccountMeta describes how an instruction touches one account.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one program invocation within a transaction.
type Instruction struct {
	// ProgramID identifies the program that executes this instruction.
	ProgramID Pubkey

	// Accounts lists every account the instruction may read or write,
	// in the order the program expects them.
	Accounts []AccountMeta

	// Data is the program-specific payload.
	Data []byte
}

// AccountInfo is the view of one account as passed into a program
// invocation. Data is shared with the ledger: writes to it become durable
// if and only if the invocation succeeds.
type AccountInfo struct {
	Key      Pubkey
	Owner    Pubkey
	Lamports uint64
	Data     []byte
	Signer   bool
	Writable bool
}

// String renders a short diagnostic form of the account.
func (a *AccountInfo) String() string {
	return fmt.Sprintf("Account(%v, owner=%v, lamports=%d, data=%s)",
		a.Key, a.Owner, a.Lamports, hex.EncodeToString(a.Data))
}

// Host abstracts the ledger facilities reachable from within an
// invocation. Implementations must guarantee that all effects of the
// invocation are discarded if the program returns an error.
type Host interface {
	// CreateAccount funds a fresh account at the given AccountInfo with
	// the rent-exempt minimum for space bytes, debited from payer, and
	// assigns it to owner. The target must be an untouched
	// system-owned account.
	CreateAccount(payer, account *AccountInfo, owner Pubkey,
		space uint64) error

	// LoadInstructionAt returns the instruction at the given index of
	// the currently executing transaction.
	LoadInstructionAt(index int) (*Instruction, error)
}

// Rent parameters. Accounts created by programs hold the rent-exempt
// minimum so they persist indefinitely.
const (
	lamportsPerByteYear    = 3480
	rentExemptionYears     = 2
	accountStorageOverhead = 128
)

// ErrInsufficientFunds is returned when a payer cannot cover the rent of a
// new account.
var ErrInsufficientFunds = errors.New("payer cannot fund rent-exempt minimum")

// RentMinimum returns the minimum balance an account of the given data
// length must hold to be exempt from rent collection.
func RentMinimum(dataLen uint64) uint64 {
	return (dataLen + accountStorageOverhead) *
		lamportsPerByteYear * rentExemptionYears
}

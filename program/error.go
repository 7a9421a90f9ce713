package program

import (
	"fmt"
)

// ErrorKind uniquely identifies the kind of Error returned by the oracle
// program.
type ErrorKind uint8

const (
	// ErrMalformedInstruction represents an error case where the
	// inbound instruction data does not decode as any oracle operation.
	ErrMalformedInstruction ErrorKind = iota

	// ErrNotEnoughAccounts represents an error case where the
	// instruction supplies fewer accounts than its entry point expects.
	ErrNotEnoughAccounts

	// ErrIncorrectCommitteePDA represents an error case where the
	// supplied committee account does not match the recomputed
	// committee record address.
	ErrIncorrectCommitteePDA

	// ErrIncorrectAssetPDA represents an error case where the supplied
	// asset account does not match the address recomputed from the
	// asset key.
	ErrIncorrectAssetPDA

	// ErrNotOwnedByOracle represents an error case where a record
	// account exists but was not created by this program.
	ErrNotOwnedByOracle

	// ErrIncorrectCommitteeID represents an error case where a rotation
	// does not carry exactly the successor change id, or a bootstrap
	// does not start at zero.
	ErrIncorrectCommitteeID

	// ErrCommitteeNotInitialized represents an error case where an
	// operation requires the committee record before it has been
	// bootstrapped.
	ErrCommitteeNotInitialized

	// ErrInvalidSigner represents an error case where the companion
	// verification instruction is missing, malformed, or does not match
	// the expected signer, message and signature exactly.
	ErrInvalidSigner

	// ErrDuplicateRequest represents an error case where an asset
	// record has already been opened for the key.
	ErrDuplicateRequest

	// ErrRequestNotInitialized represents an error case where an asset
	// update targets a key no record has been opened for.
	ErrRequestNotInitialized

	// ErrMalformedRecord represents an error case where stored record
	// bytes fail the strict decode.
	ErrMalformedRecord
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedInstruction:
		return "malformed oracle instruction"
	case ErrNotEnoughAccounts:
		return "not enough instruction accounts"
	case ErrIncorrectCommitteePDA:
		return "incorrect committee record address"
	case ErrIncorrectAssetPDA:
		return "incorrect asset record address"
	case ErrNotOwnedByOracle:
		return "record not owned by the oracle program"
	case ErrIncorrectCommitteeID:
		return "incorrect committee change id"
	case ErrCommitteeNotInitialized:
		return "committee record not initialized"
	case ErrInvalidSigner:
		return "invalid committee attestation"
	case ErrDuplicateRequest:
		return "asset record already opened for this key"
	case ErrRequestNotInitialized:
		return "asset record not opened for this key"
	case ErrMalformedRecord:
		return "malformed stored record"
	default:
		return "unknown"
	}
}

// Error represents an error returned by the oracle program. The invoking
// host treats every kind as fatal to the invocation and discards all
// pending writes.
type Error struct {
	Kind  ErrorKind
	Inner error
}

func newErrKind(kind ErrorKind) Error {
	return Error{Kind: kind}
}

func newErrInner(kind ErrorKind, inner error) Error {
	return Error{Kind: kind, Inner: inner}
}

func (e Error) Error() string {
	if e.Inner == nil {
		return e.Kind.String()
	}
	return fmt.Errorf("%v: %w", e.Kind, e.Inner).Error()
}

func (e Error) Unwrap() error {
	return e.Inner
}

// Is makes errors.Is match on the kind, so callers can compare against a
// bare kind error without caring about the wrapped cause.
func (e Error) Is(target error) bool {
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// ErrKind returns a bare Error of the given kind, for use as an errors.Is
// target.
func ErrKind(kind ErrorKind) error {
	return newErrKind(kind)
}

// Package program implements the state transition engine of the BRC20
// oracle: committee rotation, asset record opening and attested asset
// updates. Every entry point recomputes the storage addresses it touches
// from semantic keys, validates ownership and sequencing, optionally
// cross-checks a companion signature-verification instruction, and then
// mutates exactly one record. The host guarantees each invocation is
// atomic: on any error, all writes of the transaction are discarded.
package program

import (
	"github.com/boolnetwork/brc20-oracle-solana/attest"
	"github.com/boolnetwork/brc20-oracle-solana/oracle"
	"github.com/boolnetwork/brc20-oracle-solana/runtime"
)

// companionIndex is the fixed transaction position of the signature
// verification instruction the authenticated entry points inspect.
const companionIndex = 0

// Account positions per entry point.
const (
	setCommitteeNumAccounts = 4
	requestNumAccounts      = 4
	insertNumAccounts       = 3
)

// Process decodes the inbound operation and dispatches it to its entry
// point. It is the single entry of the program.
func Process(host runtime.Host, programID runtime.Pubkey,
	accounts []*runtime.AccountInfo, data []byte) error {

	payload, err := oracle.DecodePayload(data)
	if err != nil {
		return newErrInner(ErrMalformedInstruction, err)
	}

	switch p := payload.(type) {
	case *oracle.SetCommittee:
		return setCommittee(host, programID, accounts, p)
	case *oracle.Request:
		return request(host, programID, accounts, p)
	case *oracle.Insert:
		return insert(host, programID, accounts, p)
	default:
		return newErrKind(ErrMalformedInstruction)
	}
}

// setCommittee bootstraps or rotates the committee record.
//
// Accounts: payer (signer, writable), committee record, system program,
// instructions sysvar.
func setCommittee(host runtime.Host, programID runtime.Pubkey,
	accounts []*runtime.AccountInfo, op *oracle.SetCommittee) error {

	if len(accounts) < setCommitteeNumAccounts {
		return newErrKind(ErrNotEnoughAccounts)
	}
	payer, committeeInfo := accounts[0], accounts[1]

	committeeAddr, _, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return newErrInner(ErrIncorrectCommitteePDA, err)
	}
	if committeeInfo.Key != committeeAddr {
		return newErrKind(ErrIncorrectCommitteePDA)
	}

	next := op.Committee
	nextBytes, err := next.Bytes()
	if err != nil {
		return newErrInner(ErrMalformedInstruction, err)
	}

	current, decodeErr := oracle.DecodeCommittee(committeeInfo.Data)
	if decodeErr == nil {
		// Rotation: the previous committee must have authorized
		// exactly the proposed successor state.
		if committeeInfo.Owner != programID {
			return newErrKind(ErrNotOwnedByOracle)
		}
		if current.ChangeID == 0xff ||
			next.ChangeID != current.ChangeID+1 {

			return newErrKind(ErrIncorrectCommitteeID)
		}

		companion, err := host.LoadInstructionAt(companionIndex)
		if err != nil {
			return newErrInner(ErrInvalidSigner, err)
		}
		err = attest.Verify(
			companion, current.Signer[:], nextBytes, op.Signature,
		)
		if err != nil {
			return newErrInner(ErrInvalidSigner, err)
		}
	} else {
		// Bootstrap: unauthenticated, first writer wins.
		if next.ChangeID != 0 {
			return newErrKind(ErrIncorrectCommitteeID)
		}
		err := host.CreateAccount(
			payer, committeeInfo, programID,
			uint64(len(nextBytes)),
		)
		if err != nil {
			return err
		}
	}

	copy(committeeInfo.Data, nextBytes)
	log.Infof("set committee: %v", &next)
	return nil
}

// request opens a zero-amount asset record for a key. The operation is
// deliberately unauthenticated: anyone may reserve a key, paying only the
// account funding cost. The new record is stamped with the committee's
// request counter, which then advances.
//
// Accounts: payer (signer, writable), committee record, asset record,
// system program.
func request(host runtime.Host, programID runtime.Pubkey,
	accounts []*runtime.AccountInfo, op *oracle.Request) error {

	if len(accounts) < requestNumAccounts {
		return newErrKind(ErrNotEnoughAccounts)
	}
	payer, committeeInfo, assetInfo := accounts[0], accounts[1],
		accounts[2]

	committee, err := checkCommittee(programID, committeeInfo)
	if err != nil {
		return err
	}

	assetAddr, _, err := oracle.AssetAddress(programID, &op.Key)
	if err != nil {
		return newErrInner(ErrIncorrectAssetPDA, err)
	}
	if assetInfo.Key != assetAddr {
		return newErrKind(ErrIncorrectAssetPDA)
	}

	if _, err := oracle.DecodeAsset(assetInfo.Data); err == nil {
		return newErrKind(ErrDuplicateRequest)
	}

	asset := oracle.NewAsset(committee.RequestCounter, op.Key)
	assetBytes, err := asset.Bytes()
	if err != nil {
		return newErrInner(ErrMalformedInstruction, err)
	}

	err = host.CreateAccount(
		payer, assetInfo, programID, uint64(len(assetBytes)),
	)
	if err != nil {
		return err
	}
	copy(assetInfo.Data, assetBytes)

	committee.RequestCounter++
	committeeBytes, err := committee.Bytes()
	if err != nil {
		return newErrInner(ErrMalformedRecord, err)
	}
	copy(committeeInfo.Data, committeeBytes)

	log.Infof("new request %v assigned uid %d", &op.Key, asset.UID)
	return nil
}

// insert overwrites an opened asset record with a committee-attested
// amount. The attested message is the exact canonical encoding of the
// resulting record, so no two intended states can share an attestation.
//
// Accounts: committee record, asset record, instructions sysvar.
func insert(host runtime.Host, programID runtime.Pubkey,
	accounts []*runtime.AccountInfo, op *oracle.Insert) error {

	if len(accounts) < insertNumAccounts {
		return newErrKind(ErrNotEnoughAccounts)
	}
	committeeInfo, assetInfo := accounts[0], accounts[1]

	committee, err := checkCommittee(programID, committeeInfo)
	if err != nil {
		return err
	}

	assetAddr, _, err := oracle.AssetAddress(programID, &op.Key)
	if err != nil {
		return newErrInner(ErrIncorrectAssetPDA, err)
	}
	if assetInfo.Key != assetAddr {
		return newErrKind(ErrIncorrectAssetPDA)
	}
	if assetInfo.Owner != programID {
		// A still system-owned account means the key was never
		// opened. Anything else is foreign storage.
		if assetInfo.Owner == runtime.SystemProgramID {
			return newErrKind(ErrRequestNotInitialized)
		}
		return newErrKind(ErrNotOwnedByOracle)
	}

	existing, err := oracle.DecodeAsset(assetInfo.Data)
	if err != nil {
		return newErrInner(ErrRequestNotInitialized, err)
	}

	next := oracle.NewAsset(existing.UID, op.Key)
	next.Set = true
	next.Amount = op.Amount
	nextBytes, err := next.Bytes()
	if err != nil {
		return newErrInner(ErrMalformedInstruction, err)
	}

	companion, err := host.LoadInstructionAt(companionIndex)
	if err != nil {
		return newErrInner(ErrInvalidSigner, err)
	}
	err = attest.Verify(
		companion, committee.Signer[:], nextBytes, op.Signature,
	)
	if err != nil {
		return newErrInner(ErrInvalidSigner, err)
	}

	copy(assetInfo.Data, nextBytes)
	log.Infof("update asset: %v", &next)
	return nil
}

// checkCommittee validates the committee record account against its
// recomputed address and ownership, and strictly decodes it.
func checkCommittee(programID runtime.Pubkey,
	committeeInfo *runtime.AccountInfo) (*oracle.Committee, error) {

	committeeAddr, _, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return nil, newErrInner(ErrIncorrectCommitteePDA, err)
	}
	if committeeInfo.Key != committeeAddr {
		return nil, newErrKind(ErrIncorrectCommitteePDA)
	}
	if committeeInfo.Owner != programID {
		if committeeInfo.Owner == runtime.SystemProgramID {
			return nil, newErrKind(ErrCommitteeNotInitialized)
		}
		return nil, newErrKind(ErrNotOwnedByOracle)
	}

	committee, err := oracle.DecodeCommittee(committeeInfo.Data)
	if err != nil {
		return nil, newErrInner(ErrMalformedRecord, err)
	}
	return committee, nil
}

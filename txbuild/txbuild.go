// Package txbuild assembles the instruction pairs a caller submits to the
// oracle program: the companion ed25519 verification instruction first,
// the program instruction second. Transaction signing and submission are
// the wallet's concern, not this package's.
package txbuild

import (
	"github.com/boolnetwork/brc20-oracle-solana/attest"
	"github.com/boolnetwork/brc20-oracle-solana/oracle"
	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/cloudflare/circl/sign/ed25519"
	"lukechampine.com/uint128"
)

// SetCommittee builds the rotation (or bootstrap) instruction pair. The
// signing key must belong to the current committee; on bootstrap any key
// may sign, as the engine accepts the first committee unauthenticated.
func SetCommittee(programID, payer runtime.Pubkey,
	signer ed25519.PrivateKey,
	next oracle.Committee) ([]runtime.Instruction, error) {

	committeeAddr, _, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return nil, err
	}

	message, err := next.Bytes()
	if err != nil {
		return nil, err
	}
	companion, err := attest.BuildInstruction(signer, message)
	if err != nil {
		return nil, err
	}
	signature := ed25519.Sign(signer, message)

	data, err := oracle.EncodePayload(&oracle.SetCommittee{
		Committee: next,
		Signature: signature,
	})
	if err != nil {
		return nil, err
	}

	return []runtime.Instruction{
		companion,
		{
			ProgramID: programID,
			Accounts: []runtime.AccountMeta{
				{
					Pubkey:     payer,
					IsSigner:   true,
					IsWritable: true,
				},
				{
					Pubkey:     committeeAddr,
					IsWritable: true,
				},
				{Pubkey: runtime.SystemProgramID},
				{Pubkey: runtime.InstructionsSysvarID},
			},
			Data: data,
		},
	}, nil
}

// Request builds the single unauthenticated instruction opening an asset
// record for the key.
func Request(programID, payer runtime.Pubkey,
	key oracle.AssetKey) ([]runtime.Instruction, error) {

	committeeAddr, _, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return nil, err
	}
	assetAddr, _, err := oracle.AssetAddress(programID, &key)
	if err != nil {
		return nil, err
	}

	data, err := oracle.EncodePayload(&oracle.Request{Key: key})
	if err != nil {
		return nil, err
	}

	return []runtime.Instruction{
		{
			ProgramID: programID,
			Accounts: []runtime.AccountMeta{
				{
					Pubkey:     payer,
					IsSigner:   true,
					IsWritable: true,
				},
				{
					Pubkey:     committeeAddr,
					IsWritable: true,
				},
				{
					Pubkey:     assetAddr,
					IsWritable: true,
				},
				{Pubkey: runtime.SystemProgramID},
			},
			Data: data,
		},
	}, nil
}

// Insert builds the attested update instruction pair for an opened asset
// record. The uid must match the value stamped onto the record when it
// was opened, as the signed message covers it.
func Insert(programID runtime.Pubkey, committee ed25519.PrivateKey,
	uid uint64, key oracle.AssetKey,
	amount uint128.Uint128) ([]runtime.Instruction, error) {

	committeeAddr, _, err := oracle.CommitteeAddress(programID)
	if err != nil {
		return nil, err
	}
	assetAddr, _, err := oracle.AssetAddress(programID, &key)
	if err != nil {
		return nil, err
	}

	next := oracle.NewAsset(uid, key)
	next.Set = true
	next.Amount = amount
	message, err := next.Bytes()
	if err != nil {
		return nil, err
	}

	companion, err := attest.BuildInstruction(committee, message)
	if err != nil {
		return nil, err
	}
	signature := ed25519.Sign(committee, message)

	data, err := oracle.EncodePayload(&oracle.Insert{
		Key:       key,
		Amount:    amount,
		Signature: signature,
	})
	if err != nil {
		return nil, err
	}

	return []runtime.Instruction{
		companion,
		{
			ProgramID: programID,
			Accounts: []runtime.AccountMeta{
				{Pubkey: committeeAddr},
				{
					Pubkey:     assetAddr,
					IsWritable: true,
				},
				{Pubkey: runtime.InstructionsSysvarID},
			},
			Data: data,
		},
	}, nil
}

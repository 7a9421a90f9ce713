package program

import (
	"encoding/binary"
	"fmt"

	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/cloudflare/circl/sign/ed25519"
)

// Bank is an in-memory ledger honoring the host contract the engine is
// written against: transactions execute instruction by instruction, every
// write of a failed transaction is rolled back, ed25519 verification
// instructions are executed by the host itself before any program can
// inspect them, and account creation debits the rent-exempt minimum from
// the payer. It backs the package tests and the CLI's simulation mode.
type Bank struct {
	programID runtime.Pubkey
	accounts  map[runtime.Pubkey]*runtime.AccountInfo
}

// NewBank returns an empty bank that executes the oracle program under
// the given identity.
func NewBank(programID runtime.Pubkey) *Bank {
	return &Bank{
		programID: programID,
		accounts:  make(map[runtime.Pubkey]*runtime.AccountInfo),
	}
}

// Fund credits a system-owned account, creating it if needed.
func (b *Bank) Fund(key runtime.Pubkey, lamports uint64) {
	account := b.account(key)
	account.Lamports += lamports
}

// Account returns a copy of the account's current state, or nil if the
// bank has never seen the key.
func (b *Bank) Account(key runtime.Pubkey) *runtime.AccountInfo {
	account, ok := b.accounts[key]
	if !ok {
		return nil
	}
	c := *account
	c.Data = append([]byte(nil), account.Data...)
	return &c
}

// account returns the live account entry for the key, creating a fresh
// system-owned one if needed.
func (b *Bank) account(key runtime.Pubkey) *runtime.AccountInfo {
	if account, ok := b.accounts[key]; ok {
		return account
	}
	account := &runtime.AccountInfo{
		Key:   key,
		Owner: runtime.SystemProgramID,
	}
	b.accounts[key] = account
	return account
}

// ProcessTransaction executes the instructions in order as one atomic
// unit. On any failure the pre-transaction state is restored in full.
func (b *Bank) ProcessTransaction(ixs []runtime.Instruction,
	signers ...runtime.Pubkey) error {

	snapshot := b.snapshot()
	if err := b.execute(ixs, signers); err != nil {
		b.accounts = snapshot
		return err
	}
	return nil
}

func (b *Bank) execute(ixs []runtime.Instruction,
	signers []runtime.Pubkey) error {

	for i := range ixs {
		ix := &ixs[i]
		var err error
		switch ix.ProgramID {
		case runtime.Ed25519ProgramID:
			err = verifyEd25519Instruction(ix.Data)
		case b.programID:
			err = b.invokeOracle(ix, ixs, signers)
		default:
			err = fmt.Errorf("unknown program %v", ix.ProgramID)
		}
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

func (b *Bank) invokeOracle(ix *runtime.Instruction,
	tx []runtime.Instruction, signers []runtime.Pubkey) error {

	accounts := make([]*runtime.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		account := b.account(meta.Pubkey)
		account.Signer = meta.IsSigner && signedBy(signers, meta.Pubkey)
		account.Writable = meta.IsWritable
		accounts[i] = account
	}

	host := &bankHost{tx: tx}
	return Process(host, b.programID, accounts, ix.Data)
}

func (b *Bank) snapshot() map[runtime.Pubkey]*runtime.AccountInfo {
	snapshot := make(
		map[runtime.Pubkey]*runtime.AccountInfo, len(b.accounts),
	)
	for key, account := range b.accounts {
		c := *account
		c.Data = append([]byte(nil), account.Data...)
		snapshot[key] = &c
	}
	return snapshot
}

func signedBy(signers []runtime.Pubkey, key runtime.Pubkey) bool {
	for _, signer := range signers {
		if signer == key {
			return true
		}
	}
	return false
}

// bankHost exposes the host facilities to one oracle invocation.
type bankHost struct {
	tx []runtime.Instruction
}

// LoadInstructionAt returns the transaction instruction at the index, as
// the instructions sysvar would.
func (h *bankHost) LoadInstructionAt(index int) (*runtime.Instruction,
	error) {

	if index < 0 || index >= len(h.tx) {
		return nil, fmt.Errorf("no instruction at index %d", index)
	}
	return &h.tx[index], nil
}

// CreateAccount assigns a fresh rent-funded account to the owner, debiting
// the payer.
func (h *bankHost) CreateAccount(payer, account *runtime.AccountInfo,
	owner runtime.Pubkey, space uint64) error {

	if !payer.Signer {
		return fmt.Errorf("payer %v did not sign", payer.Key)
	}
	if account.Owner != runtime.SystemProgramID {
		return fmt.Errorf("account %v already in use", account.Key)
	}
	if len(account.Data) != 0 {
		return fmt.Errorf("account %v already holds data",
			account.Key)
	}

	rent := runtime.RentMinimum(space)
	if payer.Lamports < rent {
		return runtime.ErrInsufficientFunds
	}
	payer.Lamports -= rent
	account.Lamports += rent
	account.Owner = owner
	account.Data = make([]byte, space)
	return nil
}

// verifyEd25519Instruction is the host-level execution of the trusted
// verification program: it decodes the single-signature layout and
// performs real ed25519 verification, failing the transaction on any
// invalid signature. Programs only ever observe instructions that have
// already passed this check.
func verifyEd25519Instruction(data []byte) error {
	const headerLen = 16
	if len(data) < headerLen {
		return fmt.Errorf("ed25519 instruction too short")
	}
	if data[0] != 1 || data[1] != 0 {
		return fmt.Errorf("expected exactly one signature")
	}

	le := binary.LittleEndian
	sigOffset := int(le.Uint16(data[2:]))
	pubkeyOffset := int(le.Uint16(data[6:]))
	msgOffset := int(le.Uint16(data[10:]))
	msgSize := int(le.Uint16(data[12:]))

	if sigOffset+ed25519.SignatureSize > len(data) ||
		pubkeyOffset+ed25519.PublicKeySize > len(data) ||
		msgOffset+msgSize > len(data) {

		return fmt.Errorf("ed25519 instruction offsets out of range")
	}

	pubkey := ed25519.PublicKey(
		data[pubkeyOffset : pubkeyOffset+ed25519.PublicKeySize],
	)
	signature := data[sigOffset : sigOffset+ed25519.SignatureSize]
	message := data[msgOffset : msgOffset+msgSize]

	if !ed25519.Verify(pubkey, message, signature) {
		return fmt.Errorf("ed25519 signature verification failed")
	}
	return nil
}

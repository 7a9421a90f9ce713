// Package oracle defines the persistent records of the BRC20 oracle, the
// strict binary codec they share with every attested message, and the
// deterministic derivation of the ledger addresses they live at. No
// registry or lookup service exists: every reader and writer recomputes
// the same address from the same semantic key.
package oracle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/boolnetwork/brc20-oracle-solana/runtime"
	"github.com/ethereum/go-ethereum/crypto"
	"lukechampine.com/uint128"
)

// Namespace tags. The committee seed keys the singleton committee record;
// the asset prefix both seeds asset derivation and is stored as the first
// bytes of every asset record so off-chain indexers can filter on it.
var (
	// CommitteeSeed is the derivation seed of the committee record.
	CommitteeSeed = []byte("Committee")

	// AssetSeed is the derivation seed prefix of asset records.
	AssetSeed = []byte("Asset")
)

// AssetPrefixLen is the length of the stored asset namespace tag.
const AssetPrefixLen = 5

// CommitteeSize is the fixed encoded size of a committee record.
const CommitteeSize = 1 + runtime.PubkeyLen + 8

// Committee is the singleton authority record. Its signer authorizes every
// asset update and its own succession; the change id makes each rotation
// replay-proof.
type Committee struct {
	// ChangeID strictly increments by one per successful rotation,
	// starting at zero.
	ChangeID uint8

	// Signer is the ed25519 public key whose attestations the engine
	// accepts.
	Signer runtime.Pubkey

	// RequestCounter is stamped onto each newly opened asset record
	// for ordering and audit, then incremented.
	RequestCounter uint64
}

// Encode serializes the committee into the writer.
func (c *Committee) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{c.ChangeID}); err != nil {
		return err
	}
	if _, err := w.Write(c.Signer[:]); err != nil {
		return err
	}
	return binary.Write(w, byteOrder, c.RequestCounter)
}

// Decode deserializes the committee from the reader.
func (c *Committee) Decode(r io.Reader) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	c.ChangeID = b[0]
	if _, err := io.ReadFull(r, c.Signer[:]); err != nil {
		return err
	}
	return binary.Read(r, byteOrder, &c.RequestCounter)
}

// Bytes returns the canonical encoding of the committee. Attestations for
// a rotation sign exactly these bytes.
func (c *Committee) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the committee for log output.
func (c *Committee) String() string {
	return fmt.Sprintf("Committee(id=%d, signer=%v, counter=%d)",
		c.ChangeID, c.Signer, c.RequestCounter)
}

// DecodeCommittee strictly decodes a committee record from stored bytes.
// A failure means no committee exists at the storage location.
func DecodeCommittee(data []byte) (*Committee, error) {
	r := bytes.NewReader(data)
	var c Committee
	if err := c.Decode(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, ErrTrailingBytes
	}
	return &c, nil
}

// AssetKey is the semantic key of one attested balance: a block height, a
// four-character ticker and the owner's Bitcoin address. It is immutable
// once an asset record is opened for it and, together with the namespace
// tag, is the sole input of the record's address derivation.
type AssetKey struct {
	Height uint32
	Tick   [4]byte
	Owner  BtcAddress
}

// Encode serializes the key into the writer.
func (k *AssetKey) Encode(w io.Writer) error {
	if err := binary.Write(w, byteOrder, k.Height); err != nil {
		return err
	}
	if _, err := w.Write(k.Tick[:]); err != nil {
		return err
	}
	return k.Owner.Encode(w)
}

// Decode deserializes the key from the reader.
func (k *AssetKey) Decode(r io.Reader) error {
	if err := binary.Read(r, byteOrder, &k.Height); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, k.Tick[:]); err != nil {
		return err
	}
	return k.Owner.Decode(r)
}

// Bytes returns the canonical encoding of the key.
func (k *AssetKey) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := k.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the key for log output.
func (k *AssetKey) String() string {
	return fmt.Sprintf("AssetKey(height=%d, tick=%s, owner=%v)",
		k.Height, k.Tick[:], &k.Owner)
}

// Asset is one attested balance record. The stored prefix mirrors the
// derivation namespace so indexers can filter records without decoding
// them.
type Asset struct {
	// Prefix is the constant namespace tag "Asset".
	Prefix [AssetPrefixLen]byte

	// Set reports whether the amount has been attested at least once.
	// It is false between opening and the first insert.
	Set bool

	// UID is the committee request counter value at opening time.
	UID uint64

	// Key is the semantic key the record was opened for.
	Key AssetKey

	// Amount is the attested balance.
	Amount uint128.Uint128
}

// NewAsset returns an unset asset record for the given key, stamped with
// the given uid.
func NewAsset(uid uint64, key AssetKey) Asset {
	asset := Asset{
		Set: false,
		UID: uid,
		Key: key,
	}
	copy(asset.Prefix[:], AssetSeed)
	return asset
}

// Encode serializes the asset into the writer.
func (a *Asset) Encode(w io.Writer) error {
	if _, err := w.Write(a.Prefix[:]); err != nil {
		return err
	}
	if err := writeBool(w, a.Set); err != nil {
		return err
	}
	if err := binary.Write(w, byteOrder, a.UID); err != nil {
		return err
	}
	if err := a.Key.Encode(w); err != nil {
		return err
	}

	var amount [16]byte
	a.Amount.PutBytes(amount[:])
	_, err := w.Write(amount[:])
	return err
}

// Decode deserializes the asset from the reader, rejecting records whose
// namespace tag does not match.
func (a *Asset) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, a.Prefix[:]); err != nil {
		return err
	}
	if !bytes.Equal(a.Prefix[:], AssetSeed) {
		return fmt.Errorf("unexpected record prefix %q", a.Prefix[:])
	}

	var err error
	if a.Set, err = readBool(r); err != nil {
		return err
	}
	if err := binary.Read(r, byteOrder, &a.UID); err != nil {
		return err
	}
	if err := a.Key.Decode(r); err != nil {
		return err
	}

	var amount [16]byte
	if _, err := io.ReadFull(r, amount[:]); err != nil {
		return err
	}
	a.Amount = uint128.FromBytes(amount[:])
	return nil
}

// Bytes returns the canonical encoding of the asset. Attestations for an
// insert sign exactly these bytes.
func (a *Asset) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the asset for log output.
func (a *Asset) String() string {
	return fmt.Sprintf("Asset(uid=%d, set=%v, key=%v, amount=%v)",
		a.UID, a.Set, &a.Key, a.Amount)
}

// DecodeAsset strictly decodes an asset record from stored bytes. A
// failure means no asset record exists at the storage location.
func DecodeAsset(data []byte) (*Asset, error) {
	r := bytes.NewReader(data)
	var a Asset
	if err := a.Decode(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, ErrTrailingBytes
	}
	return &a, nil
}

// CommitteeAddress derives the address of the singleton committee record
// under the given program.
func CommitteeAddress(programID runtime.Pubkey) (runtime.Pubkey, uint8,
	error) {

	return runtime.FindProgramAddress(
		[][]byte{CommitteeSeed}, programID,
	)
}

// AssetAddress derives the address of the asset record for the given key
// under the given program. The variable-length key is content-hashed with
// keccak-256 first, both to satisfy the host's seed length limit and so
// that structurally similar keys cannot produce related seeds.
func AssetAddress(programID runtime.Pubkey, key *AssetKey) (runtime.Pubkey,
	uint8, error) {

	keyBytes, err := key.Bytes()
	if err != nil {
		return runtime.Pubkey{}, 0, err
	}

	return runtime.FindProgramAddress(
		[][]byte{AssetSeed, crypto.Keccak256(keyBytes)}, programID,
	)
}

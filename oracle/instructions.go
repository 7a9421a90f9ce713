package oracle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"lukechampine.com/uint128"
)

// PayloadTag discriminates the inbound operation union.
type PayloadTag uint8

const (
	// TagSetCommittee rotates (or bootstraps) the committee.
	TagSetCommittee PayloadTag = 0

	// TagRequest opens an asset record for a key.
	TagRequest PayloadTag = 1

	// TagInsert attests an amount into an opened asset record.
	TagInsert PayloadTag = 2
)

// Payload is one decoded oracle operation.
type Payload interface {
	// Tag returns the operation's discriminant.
	Tag() PayloadTag

	encodeBody(w io.Writer) error
	decodeBody(r io.Reader) error
}

// SetCommittee carries the full proposed committee state and the previous
// committee's detached signature over its canonical encoding. The
// signature is unused on bootstrap.
type SetCommittee struct {
	Committee Committee
	Signature []byte
}

// Tag returns TagSetCommittee.
func (p *SetCommittee) Tag() PayloadTag { return TagSetCommittee }

func (p *SetCommittee) encodeBody(w io.Writer) error {
	if err := p.Committee.Encode(w); err != nil {
		return err
	}
	return writeVarBytes(w, p.Signature)
}

func (p *SetCommittee) decodeBody(r io.Reader) error {
	if err := p.Committee.Decode(r); err != nil {
		return err
	}
	var err error
	p.Signature, err = readVarBytes(r)
	return err
}

// Request carries the key to open an asset record for.
type Request struct {
	Key AssetKey
}

// Tag returns TagRequest.
func (p *Request) Tag() PayloadTag { return TagRequest }

func (p *Request) encodeBody(w io.Writer) error {
	return p.Key.Encode(w)
}

func (p *Request) decodeBody(r io.Reader) error {
	return p.Key.Decode(r)
}

// Insert carries a key, the attested amount and the committee's detached
// signature over the canonical encoding of the resulting asset record.
type Insert struct {
	Key       AssetKey
	Amount    uint128.Uint128
	Signature []byte
}

// Tag returns TagInsert.
func (p *Insert) Tag() PayloadTag { return TagInsert }

func (p *Insert) encodeBody(w io.Writer) error {
	if err := p.Key.Encode(w); err != nil {
		return err
	}
	var amount [16]byte
	p.Amount.PutBytes(amount[:])
	if _, err := w.Write(amount[:]); err != nil {
		return err
	}
	return writeVarBytes(w, p.Signature)
}

func (p *Insert) decodeBody(r io.Reader) error {
	if err := p.Key.Decode(r); err != nil {
		return err
	}
	var amount [16]byte
	if _, err := io.ReadFull(r, amount[:]); err != nil {
		return err
	}
	p.Amount = uint128.FromBytes(amount[:])
	var err error
	p.Signature, err = readVarBytes(r)
	return err
}

// EncodePayload serializes a payload with its leading tag byte.
func EncodePayload(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, byteOrder, p.Tag()); err != nil {
		return nil, err
	}
	if err := p.encodeBody(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePayload strictly deserializes an inbound operation, rejecting
// unknown tags and trailing bytes.
func DecodePayload(data []byte) (Payload, error) {
	r := bytes.NewReader(data)

	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}

	var p Payload
	switch PayloadTag(tag[0]) {
	case TagSetCommittee:
		p = &SetCommittee{}
	case TagRequest:
		p = &Request{}
	case TagInsert:
		p = &Insert{}
	default:
		return nil, fmt.Errorf("unknown instruction tag %d", tag[0])
	}

	if err := p.decodeBody(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, ErrTrailingBytes
	}
	return p, nil
}

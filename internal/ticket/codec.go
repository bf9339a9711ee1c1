// Package ticket builds and verifies signed ticket payloads.
//
// The signature is HMAC-SHA256 over the JSON encoding of every payload
// field except the signature, in wire order, hex encoded.  checked_in is
// signed as issued; flipping it at the door is the scanner's business.
package ticket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/theater-seat-ticketing/internal/apperr"
)

// Seat is one seat printed on the ticket.
type Seat struct {
	Section string `json:"section"`
	Row     string `json:"row"`
	Number  uint32 `json:"number"`
}

// Payload is the ticket as it travels on the wire.  Field order is part of
// the signed form and must not change.
type Payload struct {
	BookingID    string `json:"booking_id"`
	Reference    string `json:"reference"`
	ShowID       uint64 `json:"show_id"`
	ShowTitle    string `json:"show_title"`
	ShowDatetime string `json:"show_datetime"`
	CustomerName string `json:"customer_name"`
	Seats        []Seat `json:"seats"`
	CheckedIn    bool   `json:"checked_in"`
	Signature    string `json:"signature"`
}

// signed mirrors Payload minus Signature.
type signed struct {
	BookingID    string `json:"booking_id"`
	Reference    string `json:"reference"`
	ShowID       uint64 `json:"show_id"`
	ShowTitle    string `json:"show_title"`
	ShowDatetime string `json:"show_datetime"`
	CustomerName string `json:"customer_name"`
	Seats        []Seat `json:"seats"`
	CheckedIn    bool   `json:"checked_in"`
}

// Canonical returns the bytes the signature covers.
func Canonical(p Payload) ([]byte, error) {
	seats := p.Seats
	if seats == nil {
		seats = []Seat{}
	}
	return json.Marshal(signed{
		BookingID:    p.BookingID,
		Reference:    p.Reference,
		ShowID:       p.ShowID,
		ShowTitle:    p.ShowTitle,
		ShowDatetime: p.ShowDatetime,
		CustomerName: p.CustomerName,
		Seats:        seats,
		CheckedIn:    p.CheckedIn,
	})
}

// Codec signs and verifies payloads with one process-wide key.
type Codec struct {
	key []byte
}

var errEmptyKey = errors.New("ticket signing key is empty")

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errEmptyKey
	}
	return &Codec{key: append([]byte(nil), secret...)}, nil
}

func (c *Codec) mac(p Payload) ([]byte, error) {
	msg, err := Canonical(p)
	if err != nil {
		return nil, fmt.Errorf("canonicalize ticket: %w", err)
	}
	h := hmac.New(sha256.New, c.key)
	h.Write(msg)
	return h.Sum(nil), nil
}

// Sign returns p with its Signature set.  Any existing signature is
// ignored.
func (c *Codec) Sign(p Payload) (Payload, error) {
	sum, err := c.mac(p)
	if err != nil {
		return Payload{}, err
	}
	p.Signature = hex.EncodeToString(sum)
	return p, nil
}

// Verify recomputes the signature and compares it in constant time.
// Malformed hex and wrong lengths fail the same way as a mismatch.
func (c *Codec) Verify(p Payload) error {
	got, err := hex.DecodeString(p.Signature)
	if err != nil || len(got) != sha256.Size {
		return apperr.ErrSignatureInvalid
	}
	want, err := c.mac(p)
	if err != nil {
		return err
	}
	if !hmac.Equal(got, want) {
		return apperr.ErrSignatureInvalid
	}
	return nil
}

// Encode marshals a payload for storage or delivery.
func Encode(p Payload) ([]byte, error) { return json.Marshal(p) }

// Decode parses a wire payload.  Unparseable input is InvalidRequest.
func Decode(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, apperr.Invalid("ticket payload: %v", err)
	}
	return p, nil
}

// VerifyJSON decodes and verifies a wire payload.
func (c *Codec) VerifyJSON(data []byte) (Payload, error) {
	p, err := Decode(data)
	if err != nil {
		return Payload{}, err
	}
	if err := c.Verify(p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

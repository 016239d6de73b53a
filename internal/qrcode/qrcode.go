// Package qrcode encodes the opaque redemption tokens shown as QR images in the app.
//
// Wire format: BC|v1|<type>|<token>. The version segment lets future token shapes
// coexist with v1 payloads already printed or cached on devices.
package qrcode

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type Type string

const (
	LegacyPoint  Type = "P"
	LegacyCoupon Type = "C"
	Earn         Type = "E"
	Voucher      Type = "V"
)

const (
	prefix   = "BC"
	version  = "v1"
	sep      = "|"
	minToken = 8
)

// Payload is a decoded QR code.
type Payload struct {
	Type  Type
	Token string
}

// Legacy reports whether the payload belongs to the stamp card.
func (p Payload) Legacy() bool {
	return p.Type == LegacyPoint || p.Type == LegacyCoupon
}

func known(t Type) bool {
	switch t {
	case LegacyPoint, LegacyCoupon, Earn, Voucher:
		return true
	}
	return false
}

func Encode(t Type, token string) string {
	return strings.Join([]string{prefix, version, string(t), token}, sep)
}

// Decode parses a payload. Anything malformed yields ok=false.
func Decode(payload string) (p Payload, ok bool) {
	parts := strings.Split(strings.TrimSpace(payload), sep)
	if len(parts) != 4 {
		return Payload{}, false
	}
	if parts[0] != prefix || parts[1] != version {
		return Payload{}, false
	}
	t := Type(parts[2])
	if !known(t) || len(parts[3]) < minToken {
		return Payload{}, false
	}
	return Payload{Type: t, Token: parts[3]}, true
}

// NewToken returns 32 random bytes as 64 hex chars.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Hasher derives the lookup hash of a raw token. Raw tokens are never stored.
type Hasher struct {
	pepper string
}

func NewHasher(pepper string) Hasher {
	return Hasher{pepper: pepper}
}

func (h Hasher) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw + h.pepper))
	return hex.EncodeToString(sum[:])
}

// Issue creates a fresh token and returns it with its hash.
func (h Hasher) Issue() (raw string, hash string, err error) {
	raw, err = NewToken()
	if err != nil {
		return "", "", err
	}
	return raw, h.Hash(raw), nil
}

package qrcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncode(t *testing.T) {
	require.Equal(t, "BC|v1|E|abcdefgh", Encode(Earn, "abcdefgh"))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		ok      bool
		typ     Type
	}{
		{"point", "BC|v1|P|0123456789abcdef", true, LegacyPoint},
		{"coupon", "BC|v1|C|0123456789abcdef", true, LegacyCoupon},
		{"earn", "BC|v1|E|0123456789abcdef", true, Earn},
		{"voucher", "BC|v1|V|0123456789abcdef", true, Voucher},
		{"whitespace", "  BC|v1|V|0123456789abcdef\n", true, Voucher},
		{"min length", "BC|v1|E|12345678", true, Earn},
		{"wrong prefix", "XX|v1|E|0123456789abcdef", false, ""},
		{"wrong version", "BC|v2|E|0123456789abcdef", false, ""},
		{"unknown type", "BC|v1|Z|0123456789abcdef", false, ""},
		{"short token", "BC|v1|E|1234567", false, ""},
		{"too few fields", "BC|v1|E", false, ""},
		{"too many fields", "BC|v1|E|0123456789|abcdef", false, ""},
		{"empty", "", false, ""},
		{"lowercase type", "BC|v1|e|0123456789abcdef", false, ""},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			p, ok := Decode(ts.payload)
			require.Equal(t, ts.ok, ok, "payload=%q", ts.payload)
			if ok {
				require.Equal(t, ts.typ, p.Type)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		typ := Type(rapid.SampledFrom([]string{"P", "C", "E", "V"}).Draw(t, "type"))
		token := rapid.StringMatching(`[A-Za-z0-9_\-]{8,80}`).Draw(t, "token")

		p, ok := Decode(Encode(typ, token))
		if !ok {
			t.Fatalf("decode failed for %q", token)
		}
		if p.Type != typ || p.Token != token {
			t.Fatalf("got %+v, want %s/%s", p, typ, token)
		}
	})
}

func TestDecodeNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "payload")
		p, ok := Decode(s)
		if ok && len(p.Token) < 8 {
			t.Fatalf("accepted short token %q", s)
		}
	})
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
	require.Equal(t, "", strings.Trim(a, "0123456789abcdef"))
}

func TestHasher(t *testing.T) {
	h := NewHasher("pepper")
	require.Equal(t, h.Hash("token-1"), h.Hash("token-1"))
	require.NotEqual(t, h.Hash("token-1"), h.Hash("token-2"))
	require.NotEqual(t, h.Hash("token-1"), NewHasher("other").Hash("token-1"))
	require.Len(t, h.Hash("token-1"), 64)

	raw, hash, err := h.Issue()
	require.NoError(t, err)
	require.Equal(t, h.Hash(raw), hash)
}

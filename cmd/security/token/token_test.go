package token

import (
	"testing"
)

func TestHashSHA256Hex_StableLength(t *testing.T) {
	h := HashSHA256Hex("refresh-token-plain")
	if len(h) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h))
	}
	if h != HashSHA256Hex("refresh-token-plain") {
		t.Fatalf("hash must be deterministic")
	}
}

func TestHashRefreshTokenHex_HMACMode(t *testing.T) {
	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")

	plain := "some-refresh-token"
	got := HashRefreshTokenHex(plain)
	want := HashHMACSHA256Hex(plain, []byte("0123456789abcdef0123456789abcdef"))
	if got != want {
		t.Fatalf("HMAC mode mismatch: got=%s want=%s", got, want)
	}
	if got == HashSHA256Hex(plain) {
		t.Fatalf("HMAC mode must differ from plain SHA-256")
	}
}

func TestHMACKeyFromEnv_Policy(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); err != ErrHMACKeyMissing {
		t.Fatalf("expected ErrHMACKeyMissing, got %v", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := HMACKeyFromEnv(32); err != ErrHMACKeyTooShort {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}
}

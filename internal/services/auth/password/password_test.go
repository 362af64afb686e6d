package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, plain := range []string{"secret1", "another password", "ñandú-123"} {
		hash, err := h.Hash(plain)
		if err != nil {
			t.Fatalf("hash %q: %v", plain, err)
		}
		if !h.Verify(plain, hash) {
			t.Fatalf("expected %q to verify against its own hash", plain)
		}
		if h.Verify(plain+"x", hash) {
			t.Fatalf("expected different plaintext to fail for %q", plain)
		}
	}
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	first, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected two hashes of the same input to differ")
	}
	if !h.Verify("secret1", first) || !h.Verify("secret1", second) {
		t.Fatal("expected both hashes to verify")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, hash := range []string{"", "not-a-bcrypt-hash", "$2a$10$short"} {
		if h.Verify("secret1", hash) {
			t.Fatalf("expected malformed hash %q to be a non-match", hash)
		}
	}
}

func TestNewHasherCost(t *testing.T) {
	if got := NewHasher(0).cost; got != DefaultCost {
		t.Fatalf("expected default cost %d, got %d", DefaultCost, got)
	}
	if got := NewHasher(bcrypt.MaxCost + 1).cost; got != DefaultCost {
		t.Fatalf("expected default cost %d, got %d", DefaultCost, got)
	}

	hash, err := NewHasher(DefaultCost).Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != DefaultCost {
		t.Fatalf("expected cost %d, got %d", DefaultCost, cost)
	}
}

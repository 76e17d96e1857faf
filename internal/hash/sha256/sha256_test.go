package sha256

import "testing"

// TestHasherHashDeterministic ensures repeated hashing yields the same digest.
func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestDigestTruncatesAndJoins(t *testing.T) {
	t.Parallel()

	h := New()
	full, _ := h.Hash([]byte("winter gala|2025-12-25T19:30"))
	if got := h.Digest(16, "winter gala", "2025-12-25T19:30"); got != full[:16] {
		t.Fatalf("Digest = %s, want %s", got, full[:16])
	}
	if got := h.Digest(0, "winter gala", "2025-12-25T19:30"); got != full {
		t.Fatalf("Digest(0) = %s, want full digest", got)
	}
	if h.Digest(16, "a", "b") == h.Digest(16, "a", "c") {
		t.Fatal("expected distinct digests")
	}
}

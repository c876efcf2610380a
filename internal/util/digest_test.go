package util

import "testing"

func TestDigest(t *testing.T) {
	a := Digest([]byte("some payload"))
	b := Digest([]byte("some payload"))
	c := Digest([]byte("other payload"))

	if a != b {
		t.Error("equal payloads produced different digests")
	}
	if a == c {
		t.Error("different payloads produced the same digest")
	}
	if len(a) != 16 {
		t.Errorf("digest length = %d, want 16 hex characters", len(a))
	}
}

package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("supersecret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "supersecret1" {
		t.Error("hash must not equal the secret")
	}
	if !Verify("supersecret1", hash) {
		t.Error("correct secret must verify")
	}
	if Verify("wrong", hash) {
		t.Error("wrong secret must not verify")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")
	if a == b {
		t.Error("distinct tokens must hash differently")
	}
	if a != HashToken("token-a") {
		t.Error("token hashing must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestValidate(t *testing.T) {
	if Validate("short") {
		t.Error("secrets under 8 chars must be rejected")
	}
	if !Validate("12345678") {
		t.Error("8-char secret must pass")
	}
}

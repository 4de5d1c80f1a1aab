package token

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	raw, err := Generate("founder@acme.dev", "secret", time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := Validate(raw, "secret")
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Email != "founder@acme.dev" {
		t.Errorf("unexpected email claim: %q", claims.Email)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	raw, err := Generate("founder@acme.dev", "secret", time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := Validate(raw, "other-secret"); err == nil {
		t.Fatal("expected validation to fail with the wrong secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	raw, err := Generate("founder@acme.dev", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := Validate(raw, "secret"); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := CheckPassword(hash, "hunter2"); err != nil {
		t.Errorf("expected password to verify, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Error("expected wrong password to fail")
	}
}

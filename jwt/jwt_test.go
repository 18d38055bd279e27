package jwt

import (
	"strconv"
	"testing"
	"time"
)

func TestCreateAndValidate(t *testing.T) {
	token, err := Create(Claims{
		Issuer:   "did:example:alice",
		Subject:  "linkid",
		Audience: "resolver.example.org",
	}, "secret")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, claims, err := Validate(token, "secret")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Issuer != "did:example:alice" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _ := Create(Claims{Issuer: "did:example:alice"}, "secret")
	if _, _, err := Validate(token, "other"); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	exp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	token, _ := Create(Claims{Issuer: "did:example:alice", ExpirationTime: exp}, "secret")
	if _, _, err := Validate(token, "secret"); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if _, _, err := Validate("not-a-token", "secret"); err == nil {
		t.Fatalf("expected format error")
	}
}

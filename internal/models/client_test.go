package models

import (
	"encoding/hex"
	"testing"
)

func TestClient_GenerateClientSecret(t *testing.T) {
	client := &Client{ClientID: "demo"}

	secret, err := client.GenerateClientSecret()
	if err != nil {
		t.Fatalf("GenerateClientSecret() error = %v", err)
	}

	if len(secret) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(secret))
	}
	if _, err := hex.DecodeString(secret); err != nil {
		t.Errorf("secret is not valid hex: %v", err)
	}
	if client.ClientSecret != secret {
		t.Error("stored secret does not match returned secret")
	}

	second, err := client.GenerateClientSecret()
	if err != nil {
		t.Fatalf("GenerateClientSecret() error = %v", err)
	}
	if second == secret {
		t.Error("regenerated secret matches previous secret")
	}
}

func TestGenerateClientSecret(t *testing.T) {
	secret, err := GenerateClientSecret()
	if err != nil {
		t.Fatalf("GenerateClientSecret() error = %v", err)
	}
	if len(secret) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(secret))
	}
	if _, err := hex.DecodeString(secret); err != nil {
		t.Errorf("secret is not valid hex: %v", err)
	}
}

func TestClient_ValidateClientSecret(t *testing.T) {
	client := &Client{}
	secret, err := client.GenerateClientSecret()
	if err != nil {
		t.Fatalf("GenerateClientSecret() error = %v", err)
	}

	if !client.ValidateClientSecret(secret) {
		t.Error("correct secret rejected")
	}
	if client.ValidateClientSecret("wrong-secret") {
		t.Error("wrong secret accepted")
	}
	if client.ValidateClientSecret("") {
		t.Error("empty secret accepted")
	}
}

func TestClient_HasRedirectURI(t *testing.T) {
	client := &Client{
		RedirectURIs: StringArray{"https://app.example/cb", "http://localhost:4000/cb"},
	}

	if !client.HasRedirectURI("https://app.example/cb") {
		t.Error("registered URI rejected")
	}
	// Exact match only: prefixes and trailing slashes must not pass.
	if client.HasRedirectURI("https://app.example/cb/") {
		t.Error("trailing-slash variant accepted")
	}
	if client.HasRedirectURI("https://app.example") {
		t.Error("prefix accepted")
	}
}

func TestStringArray_ScanValue(t *testing.T) {
	var s StringArray
	if err := s.Scan([]byte(`["https://a.example/cb","https://b.example/cb"]`)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(s) != 2 || s[0] != "https://a.example/cb" {
		t.Errorf("Scan() = %v", s)
	}

	if err := s.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if len(s) != 0 {
		t.Errorf("Scan(nil) = %v, want empty", s)
	}

	v, err := StringArray(nil).Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if string(v.([]byte)) != "[]" {
		t.Errorf("Value() = %s, want []", v)
	}
}

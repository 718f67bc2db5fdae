package wallet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSeed = "cf67a180f9578afa5fd704cea39b450c1dce872c2ed17d016dcb7bf152403ea6"

func TestNewFromSeedHexDerivesStableAddress(t *testing.T) {
	w1, err := NewFromSeedHex(testSeed)
	if err != nil {
		t.Fatalf("NewFromSeedHex failed: %v", err)
	}
	w2, err := NewFromSeedHex(testSeed)
	if err != nil {
		t.Fatalf("NewFromSeedHex failed: %v", err)
	}
	if w1.VerifyingKey() != w2.VerifyingKey() {
		t.Fatalf("address not deterministic: %s vs %s", w1.VerifyingKey(), w2.VerifyingKey())
	}
	if !IsAddressValid(w1.VerifyingKey()) {
		t.Fatalf("derived address is not valid: %s", w1.VerifyingKey())
	}
	if w1.SigningKey() != testSeed {
		t.Fatalf("seed round-trip mismatch: %s", w1.SigningKey())
	}
}

func TestNewFromSeedHexRejectsBadInput(t *testing.T) {
	for _, seed := range []string{"", "zz", "abcd", strings.Repeat("0", 63)} {
		if _, err := NewFromSeedHex(seed); err == nil {
			t.Fatalf("expected error for seed %q", seed)
		}
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	w, err := NewFromSeedHex(testSeed)
	if err != nil {
		t.Fatalf("NewFromSeedHex failed: %v", err)
	}
	msg := []byte(`{"contract":"currency","function":"transfer"}`)
	sig := w.Sign(msg)
	if !w.Verify(msg, sig) {
		t.Fatal("signature did not verify")
	}
	if w.Verify([]byte("tampered"), sig) {
		t.Fatal("signature verified over wrong message")
	}
}

func TestIsAddressValid(t *testing.T) {
	cases := map[string]bool{
		strings.Repeat("a", 64):       true,
		strings.Repeat("A", 64):       false,
		strings.Repeat("a", 63):       false,
		"":                            false,
		strings.Repeat("a", 63) + "g": false,
	}
	for addr, want := range cases {
		if got := IsAddressValid(addr); got != want {
			t.Fatalf("IsAddressValid(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestLoadFromEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	seedFile := filepath.Join(dir, "wallet.hex")
	if err := os.WriteFile(seedFile, []byte(testSeed+"\n"), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	t.Setenv(EnvWalletSeed, "")
	t.Setenv(EnvWalletSeedFile, seedFile)
	w, err := LoadFromEnv("")
	if err != nil {
		t.Fatalf("LoadFromEnv from file failed: %v", err)
	}
	if w.SigningKey() != testSeed {
		t.Fatal("seed file not honored")
	}

	other, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	t.Setenv(EnvWalletSeed, other.SigningKey())
	w, err = LoadFromEnv("")
	if err != nil {
		t.Fatalf("LoadFromEnv from env failed: %v", err)
	}
	if w.SigningKey() != other.SigningKey() {
		t.Fatal("env seed should take precedence over file")
	}

	w, err = LoadFromEnv(testSeed)
	if err != nil {
		t.Fatalf("LoadFromEnv with override failed: %v", err)
	}
	if w.SigningKey() != testSeed {
		t.Fatal("override seed should take precedence over env")
	}
}

package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Wallet is an ed25519 signing keypair bound to one end user. The chain
// address is the hex-encoded verifying key.
type Wallet struct {
	signingKey ed25519.PrivateKey
	verifying  ed25519.PublicKey
}

var addressPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsAddressValid reports whether v is a well-formed chain address
// (64 lowercase hex characters).
func IsAddressValid(v string) bool {
	return addressPattern.MatchString(strings.TrimSpace(v))
}

// NewFromSeedHex builds a wallet from a 32-byte hex-encoded seed.
func NewFromSeedHex(seedHex string) (*Wallet, error) {
	clean := strings.TrimSpace(seedHex)
	seed, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("parse seed hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Wallet{
		signingKey: priv,
		verifying:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// Generate creates a new random wallet.
func Generate() (*Wallet, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return NewFromSeedHex(hex.EncodeToString(seed))
}

// VerifyingKey returns the wallet's chain address.
func (w *Wallet) VerifyingKey() string {
	return hex.EncodeToString(w.verifying)
}

// SigningKey returns the hex-encoded private seed. Callers own the secrecy
// of this value.
func (w *Wallet) SigningKey() string {
	return hex.EncodeToString(w.signingKey.Seed())
}

// Sign signs msg and returns the hex-encoded signature.
func (w *Wallet) Sign(msg []byte) string {
	return hex.EncodeToString(ed25519.Sign(w.signingKey, msg))
}

// Verify checks a hex signature over msg against the wallet's verifying key.
func (w *Wallet) Verify(msg []byte, sigHex string) bool {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	return ed25519.Verify(w.verifying, msg, sig)
}

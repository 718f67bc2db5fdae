package wallet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvWalletSeed     = "ROCKETBOT_WALLET_SEED"
	EnvWalletSeedFile = "ROCKETBOT_WALLET_SEED_FILE"

	defaultSeedRelativePath = "rocketbot/wallet.hex"
)

// LoadFromEnv resolves the signing seed with the precedence: explicit
// override, ROCKETBOT_WALLET_SEED, ROCKETBOT_WALLET_SEED_FILE, then the
// default seed file under XDG_CONFIG_HOME.
func LoadFromEnv(seedOverride string) (*Wallet, error) {
	if strings.TrimSpace(seedOverride) != "" {
		return NewFromSeedHex(seedOverride)
	}
	if v := strings.TrimSpace(os.Getenv(EnvWalletSeed)); v != "" {
		return NewFromSeedHex(v)
	}
	path := strings.TrimSpace(os.Getenv(EnvWalletSeedFile))
	if path == "" {
		path = discoverDefaultSeedFile()
	}
	if path == "" {
		return nil, fmt.Errorf("missing wallet seed: set %s or %s", EnvWalletSeed, EnvWalletSeedFile)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet seed file: %w", err)
	}
	return NewFromSeedHex(string(buf))
}

func discoverDefaultSeedFile() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	path := filepath.Join(base, defaultSeedRelativePath)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath  string
	EnvFile     string
	JSON        bool
	Plain       bool
	ResultsOnly bool
	Timeout     string
	Retries     int
	WalletSeed  string
}

// Stamps are the per-function fee ceilings supplied with each transaction.
type Stamps struct {
	Transfer    uint64
	Swap        uint64
	Subscribe   uint64
	Unsubscribe uint64
	Approve     uint64
}

type Settings struct {
	OutputMode  string
	ResultsOnly bool
	Timeout     time.Duration
	Retries     int

	MasternodeURL string
	ExplorerURL   string
	AMMContract   string
	PollTimeout   time.Duration
	PollInterval  time.Duration

	RocketswapURL   string
	CoinGeckoURL    string
	CoinGeckoAPIKey string
	BaseAssetID     string

	ApprovalCeiling float64
	Stamps          Stamps

	SwapContract         string
	SwapFunction         string
	SubscriptionContract string
	SubscriptionToken    string

	WatchInterval time.Duration
	MetricsAddr   string
	ListingChat   string
	OperatorChat  string

	StoreBackend  string
	StorePath     string
	StoreLockPath string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WalletSeed string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Chain   struct {
		MasternodeURL string `yaml:"masternode_url"`
		ExplorerURL   string `yaml:"explorer_url"`
		AMMContract   string `yaml:"amm_contract"`
		PollTimeout   string `yaml:"poll_timeout"`
		PollInterval  string `yaml:"poll_interval"`
	} `yaml:"chain"`
	Rocketswap struct {
		URL string `yaml:"url"`
	} `yaml:"rocketswap"`
	CoinGecko struct {
		URL       string `yaml:"url"`
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
		AssetID   string `yaml:"asset_id"`
	} `yaml:"coingecko"`
	Tx struct {
		ApprovalCeiling *float64 `yaml:"approval_ceiling"`
		Stamps          struct {
			Transfer    *uint64 `yaml:"transfer"`
			Swap        *uint64 `yaml:"swap"`
			Subscribe   *uint64 `yaml:"subscribe"`
			Unsubscribe *uint64 `yaml:"unsubscribe"`
			Approve     *uint64 `yaml:"approve"`
		} `yaml:"stamps"`
	} `yaml:"tx"`
	Swap struct {
		Contract string `yaml:"contract"`
		Function string `yaml:"function"`
	} `yaml:"swap"`
	Subscription struct {
		Contract string `yaml:"contract"`
		Token    string `yaml:"token"`
	} `yaml:"subscription"`
	Watch struct {
		Interval     string `yaml:"interval"`
		MetricsAddr  string `yaml:"metrics_addr"`
		ListingChat  string `yaml:"listing_chat"`
		OperatorChat string `yaml:"operator_chat"`
	} `yaml:"watch"`
	Store struct {
		Backend       string `yaml:"backend"`
		Path          string `yaml:"path"`
		LockPath      string `yaml:"lock_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       *int   `yaml:"redis_db"`
	} `yaml:"store"`
}

func Load(flags GlobalFlags) (Settings, error) {
	if flags.EnvFile != "" {
		if err := godotenv.Load(flags.EnvFile); err != nil {
			return Settings{}, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}
	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.StoreBackend != "sqlite" && settings.StoreBackend != "redis" {
		return Settings{}, fmt.Errorf("store backend must be sqlite or redis, got %q", settings.StoreBackend)
	}
	return settings, nil
}

func defaultSettings() (Settings, error) {
	storePath, lockPath, err := defaultStorePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode: "json",
		Timeout:    10 * time.Second,
		Retries:    2,

		MasternodeURL: "https://masternode-01.lamden.io",
		ExplorerURL:   "https://www.tauhq.com",
		AMMContract:   "con_rocketswap_official_v1_1",
		PollTimeout:   2 * time.Minute,
		PollInterval:  2 * time.Second,

		RocketswapURL: "https://rocketswap.exchange:2053",
		BaseAssetID:   "lamden",

		ApprovalCeiling: 900_000_000,
		Stamps: Stamps{
			Transfer:    100,
			Swap:        100,
			Subscribe:   85,
			Unsubscribe: 70,
			Approve:     40,
		},

		SwapContract:         "con_rocketswap_official_v1_1",
		SwapFunction:         "buy",
		SubscriptionContract: "con_nebape",
		SubscriptionToken:    "con_nebula",

		WatchInterval: time.Minute,
		MetricsAddr:   ":9402",

		StoreBackend:  "sqlite",
		StorePath:     storePath,
		StoreLockPath: lockPath,
		RedisAddr:     "localhost:6379",
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rocketbot", "config.yaml"), nil
}

func defaultStorePaths() (string, string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, "rocketbot")
	return filepath.Join(dir, "listings.db"), filepath.Join(dir, "listings.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}

	if cfg.Chain.MasternodeURL != "" {
		settings.MasternodeURL = cfg.Chain.MasternodeURL
	}
	if cfg.Chain.ExplorerURL != "" {
		settings.ExplorerURL = cfg.Chain.ExplorerURL
	}
	if cfg.Chain.AMMContract != "" {
		settings.AMMContract = cfg.Chain.AMMContract
	}
	if cfg.Chain.PollTimeout != "" {
		d, err := time.ParseDuration(cfg.Chain.PollTimeout)
		if err != nil {
			return fmt.Errorf("config chain.poll_timeout: %w", err)
		}
		settings.PollTimeout = d
	}
	if cfg.Chain.PollInterval != "" {
		d, err := time.ParseDuration(cfg.Chain.PollInterval)
		if err != nil {
			return fmt.Errorf("config chain.poll_interval: %w", err)
		}
		settings.PollInterval = d
	}

	if cfg.Rocketswap.URL != "" {
		settings.RocketswapURL = cfg.Rocketswap.URL
	}
	if cfg.CoinGecko.URL != "" {
		settings.CoinGeckoURL = cfg.CoinGecko.URL
	}
	if cfg.CoinGecko.APIKey != "" {
		settings.CoinGeckoAPIKey = cfg.CoinGecko.APIKey
	}
	if cfg.CoinGecko.APIKeyEnv != "" {
		settings.CoinGeckoAPIKey = os.Getenv(cfg.CoinGecko.APIKeyEnv)
	}
	if cfg.CoinGecko.AssetID != "" {
		settings.BaseAssetID = cfg.CoinGecko.AssetID
	}

	if cfg.Tx.ApprovalCeiling != nil {
		settings.ApprovalCeiling = *cfg.Tx.ApprovalCeiling
	}
	if cfg.Tx.Stamps.Transfer != nil {
		settings.Stamps.Transfer = *cfg.Tx.Stamps.Transfer
	}
	if cfg.Tx.Stamps.Swap != nil {
		settings.Stamps.Swap = *cfg.Tx.Stamps.Swap
	}
	if cfg.Tx.Stamps.Subscribe != nil {
		settings.Stamps.Subscribe = *cfg.Tx.Stamps.Subscribe
	}
	if cfg.Tx.Stamps.Unsubscribe != nil {
		settings.Stamps.Unsubscribe = *cfg.Tx.Stamps.Unsubscribe
	}
	if cfg.Tx.Stamps.Approve != nil {
		settings.Stamps.Approve = *cfg.Tx.Stamps.Approve
	}

	if cfg.Swap.Contract != "" {
		settings.SwapContract = cfg.Swap.Contract
	}
	if cfg.Swap.Function != "" {
		settings.SwapFunction = cfg.Swap.Function
	}
	if cfg.Subscription.Contract != "" {
		settings.SubscriptionContract = cfg.Subscription.Contract
	}
	if cfg.Subscription.Token != "" {
		settings.SubscriptionToken = cfg.Subscription.Token
	}

	if cfg.Watch.Interval != "" {
		d, err := time.ParseDuration(cfg.Watch.Interval)
		if err != nil {
			return fmt.Errorf("config watch.interval: %w", err)
		}
		settings.WatchInterval = d
	}
	if cfg.Watch.MetricsAddr != "" {
		settings.MetricsAddr = cfg.Watch.MetricsAddr
	}
	if cfg.Watch.ListingChat != "" {
		settings.ListingChat = cfg.Watch.ListingChat
	}
	if cfg.Watch.OperatorChat != "" {
		settings.OperatorChat = cfg.Watch.OperatorChat
	}

	if cfg.Store.Backend != "" {
		settings.StoreBackend = strings.ToLower(cfg.Store.Backend)
	}
	if cfg.Store.Path != "" {
		settings.StorePath = cfg.Store.Path
	}
	if cfg.Store.LockPath != "" {
		settings.StoreLockPath = cfg.Store.LockPath
	}
	if cfg.Store.RedisAddr != "" {
		settings.RedisAddr = cfg.Store.RedisAddr
	}
	if cfg.Store.RedisPassword != "" {
		settings.RedisPassword = cfg.Store.RedisPassword
	}
	if cfg.Store.RedisDB != nil {
		settings.RedisDB = *cfg.Store.RedisDB
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("ROCKETBOT_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("ROCKETBOT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("ROCKETBOT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("ROCKETBOT_MASTERNODE_URL"); v != "" {
		settings.MasternodeURL = v
	}
	if v := os.Getenv("ROCKETBOT_EXPLORER_URL"); v != "" {
		settings.ExplorerURL = v
	}
	if v := os.Getenv("ROCKETBOT_ROCKETSWAP_URL"); v != "" {
		settings.RocketswapURL = v
	}
	if v := os.Getenv("ROCKETBOT_COINGECKO_URL"); v != "" {
		settings.CoinGeckoURL = v
	}
	if v := os.Getenv("ROCKETBOT_COINGECKO_API_KEY"); v != "" {
		settings.CoinGeckoAPIKey = v
	}
	if v := os.Getenv("ROCKETBOT_WATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.WatchInterval = d
		}
	}
	if v := os.Getenv("ROCKETBOT_METRICS_ADDR"); v != "" {
		settings.MetricsAddr = v
	}
	if v := os.Getenv("ROCKETBOT_LISTING_CHAT"); v != "" {
		settings.ListingChat = v
	}
	if v := os.Getenv("ROCKETBOT_OPERATOR_CHAT"); v != "" {
		settings.OperatorChat = v
	}
	if v := os.Getenv("ROCKETBOT_STORE_BACKEND"); v != "" {
		settings.StoreBackend = strings.ToLower(v)
	}
	if v := os.Getenv("ROCKETBOT_STORE_PATH"); v != "" {
		settings.StorePath = v
	}
	if v := os.Getenv("ROCKETBOT_STORE_LOCK_PATH"); v != "" {
		settings.StoreLockPath = v
	}
	if v := os.Getenv("ROCKETBOT_REDIS_ADDR"); v != "" {
		settings.RedisAddr = v
	}
	if v := os.Getenv("ROCKETBOT_REDIS_PASSWORD"); v != "" {
		settings.RedisPassword = v
	}
	if v := os.Getenv("ROCKETBOT_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.RedisDB = n
		}
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	settings.ResultsOnly = flags.ResultsOnly

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.WalletSeed != "" {
		settings.WalletSeed = flags.WalletSeed
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}
	return nil
}

// Package config loads the test kit configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cosmos/go-bip39"
	"github.com/spf13/viper"
)

// RPCConfig is the configuration for the node the test kit talks to.
type RPCConfig struct {
	URL          string        `mapstructure:"url" yaml:"url"`                           // http(s), ws(s) or IPC endpoint of the node
	BackupURLs   []string      `mapstructure:"backup_urls" yaml:"backup_urls,omitempty"` // Endpoints tried in order when the node at URL fails
	ChainID      uint64        `mapstructure:"chain_id" yaml:"chain_id"`                 // Expected chain id. Zero disables the network check.
	DialAttempts uint          `mapstructure:"dial_attempts" yaml:"dial_attempts"`       // Dial attempts before giving up
	DialDelay    time.Duration `mapstructure:"dial_delay" yaml:"dial_delay"`             // Delay between dial attempts
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`         // Timeout of a single dial attempt
}

// WalletConfig selects the account derived from the mnemonic.
type WalletConfig struct {
	Index uint32 `mapstructure:"index" yaml:"index"` // Address index of the m/44'/60'/0'/0/<index> path
}

// Config wraps the entire configuration of the test kit.
//
// WARNING: This data type contains sensitive fields and should not be logged.
type Config struct {
	Mnemonic string       `mapstructure:"mnemonic" yaml:"mnemonic"` // Secret: BIP39 mnemonic of the test accounts
	RPC      RPCConfig    `mapstructure:"rpc" yaml:"rpc"`
	Wallet   WalletConfig `mapstructure:"wallet" yaml:"wallet"`
}

// Validate checks that the configuration can be used to derive test wallets.
func (c *Config) Validate() error {
	var errs []error

	mnemonic := strings.Join(strings.Fields(c.Mnemonic), " ")
	switch {
	case mnemonic == "":
		errs = append(errs, errors.New("mnemonic is required"))
	case !bip39.IsMnemonicValid(mnemonic):
		errs = append(errs, errors.New("mnemonic is not a valid BIP39 mnemonic"))
	}

	if c.RPC.DialDelay < 0 {
		errs = append(errs, fmt.Errorf("rpc.dial_delay must not be negative, got %s", c.RPC.DialDelay))
	}
	if c.RPC.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("rpc.dial_timeout must not be negative, got %s", c.RPC.DialTimeout))
	}
	if len(c.RPC.BackupURLs) > 0 && c.RPC.URL == "" {
		errs = append(errs, errors.New("rpc.backup_urls requires rpc.url"))
	}
	for i, u := range c.RPC.BackupURLs {
		if strings.TrimSpace(u) == "" {
			errs = append(errs, fmt.Errorf("rpc.backup_urls[%d] is empty", i))
		}
	}

	return errors.Join(errs...)
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadFile loads the config from a file.
func LoadFile(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

var (
	// envBindings maps config keys to the environment variables which can provide them.
	//
	// The first name is the preferred one. Later names are legacy names kept so that existing
	// test setups keep working; npm_package_config_mnemonic is what npm exposes for a
	// "config.mnemonic" entry in package.json.
	envBindings = map[string][]string{
		"mnemonic":          {"EVM_TESTKIT_MNEMONIC", "npm_package_config_mnemonic"},
		"rpc.url":           {"EVM_TESTKIT_RPC_URL", "RPC_URL"},
		"rpc.backup_urls":   {"EVM_TESTKIT_RPC_BACKUP_URLS"},
		"rpc.chain_id":      {"EVM_TESTKIT_CHAIN_ID", "CHAIN_ID"},
		"rpc.dial_attempts": {"EVM_TESTKIT_DIAL_ATTEMPTS"},
		"rpc.dial_delay":    {"EVM_TESTKIT_DIAL_DELAY"},
		"rpc.dial_timeout":  {"EVM_TESTKIT_DIAL_TIMEOUT"},
		"wallet.index":      {"EVM_TESTKIT_WALLET_INDEX"},
	}
)

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		// BindEnv takes the key followed by the env names.
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}

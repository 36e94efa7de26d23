package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	isostream "github.com/isostream/isostream-go"
)

// APIKeyEnv is consulted when neither flag nor config file carries a key.
const APIKeyEnv = "ISOSTREAM_API_KEY"

// ClientConfig captures the connection options shared by every command
// after merging defaults, config file values, environment, and CLI
// overrides.
type ClientConfig struct {
	APIKey       string `yaml:"apiKey"`
	Host         string `yaml:"host"`
	Verbose      bool   `yaml:"verbose"`
	CacheBackend string `yaml:"cacheBackend"`
	CacheName    string `yaml:"cacheName"`
	ConfigPath   string `yaml:"-"`
}

func resolveClientConfig(cmd *cobra.Command) (*ClientConfig, error) {
	cfg := &ClientConfig{}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyClientConfigFromFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyClientFlagOverrides(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	}
	if cfg.APIKey == "" {
		return nil, newUsageError(fmt.Sprintf("an API key is required (use --api-key, a config file, or %s)", APIKeyEnv))
	}
	return cfg, nil
}

func applyClientConfigFromFile(cfg *ClientConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("cannot read config file %q: %v", path, err))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return newUsageError(fmt.Sprintf("cannot parse config file %q: %v", path, err))
	}
	return nil
}

func applyClientFlagOverrides(flags *pflag.FlagSet, cfg *ClientConfig) error {
	if flags.Changed("api-key") {
		value, err := flags.GetString("api-key")
		if err != nil {
			return err
		}
		cfg.APIKey = strings.TrimSpace(value)
	}
	if flags.Changed("host") {
		value, err := flags.GetString("host")
		if err != nil {
			return err
		}
		cfg.Host = strings.TrimSpace(value)
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	if flags.Changed("cache") {
		value, err := flags.GetString("cache")
		if err != nil {
			return err
		}
		cfg.CacheBackend = strings.TrimSpace(value)
	}
	if flags.Changed("cache-name") {
		value, err := flags.GetString("cache-name")
		if err != nil {
			return err
		}
		cfg.CacheName = strings.TrimSpace(value)
	}
	return nil
}

var clientBuilder = buildClient

func buildClient(ctx context.Context, cfg *ClientConfig) (*isostream.Client, error) {
	opts := []isostream.Option{}
	if cfg.Host != "" {
		opts = append(opts, isostream.WithHost(cfg.Host))
	}
	if cfg.Verbose {
		opts = append(opts, isostream.WithVerbose())
	}
	if cfg.CacheBackend != "" {
		opts = append(opts, isostream.WithCache(cfg.CacheBackend))
	}
	if cfg.CacheName != "" {
		opts = append(opts, isostream.WithCacheName(cfg.CacheName))
	}
	return isostream.New(ctx, cfg.APIKey, opts...)
}

// Package config loads the gateway's node configuration using Viper,
// layering a project-local primacron.toml/config.toml over a user config over a
// system config, with PRIMACRON_-prefixed environment variables taking final
// precedence.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/primus/primacron/errors"
)

// Config is the gateway's node configuration, covering every option named in
// the external interfaces table: HTTP paths, the directory namespace, the
// session TTL, this node's externally reachable address, and the pluggable
// codec/transport/parser names.
type Config struct {
	Broadcast   string `mapstructure:"broadcast"`
	Endpoint    string `mapstructure:"endpoint"`
	Redirect    string `mapstructure:"redirect"`
	Namespace   string `mapstructure:"namespace"`
	Timeout     int    `mapstructure:"timeout"` // seconds
	Address     string `mapstructure:"address"`
	Port        int    `mapstructure:"port"`
	Encode      string `mapstructure:"encode"`
	Decode      string `mapstructure:"decode"`
	Transformer string `mapstructure:"transformer"`
	Parser      string `mapstructure:"parser"`

	Directory DirectoryConfig `mapstructure:"directory"`
}

// DirectoryConfig configures the shared KV store backing the session
// directory.
type DirectoryConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NodeURL returns this node's externally reachable base URL, as used in
// session directory addresses (nodeURL@connectionId).
func (c *Config) NodeURL() string {
	if c.Port == 0 {
		return "http://" + c.Address
	}
	return "http://" + c.Address + ":" + portString(c.Port)
}

func portString(port int) string {
	return strconv.Itoa(port)
}

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the gateway configuration using Viper, caching the result.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// LoadWithViper unmarshals a Config from a caller-provided Viper instance,
// bypassing the global cache and file discovery. Used by tests that want an
// isolated configuration.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// Reset clears the cached configuration. Used by tests.
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("PRIMACRON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// SetDefaults installs the gateway's default configuration values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("broadcast", "/primacron/broadcast")
	v.SetDefault("endpoint", "/stream/")
	v.SetDefault("redirect", "")
	v.SetDefault("namespace", "primacron")
	v.SetDefault("timeout", 900)
	v.SetDefault("address", "localhost")
	v.SetDefault("port", 0)
	v.SetDefault("encode", "json")
	v.SetDefault("decode", "json")
	v.SetDefault("transformer", "websocket")
	v.SetDefault("parser", "json")
	v.SetDefault("directory.addr", "localhost:6379")
	v.SetDefault("directory.password", "")
	v.SetDefault("directory.db", 0)
}

// findProjectConfig searches for primacron.toml or config.toml by walking up
// the directory tree from the working directory.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		primacronPath := filepath.Join(dir, "primacron.toml")
		if _, err := os.Stat(primacronPath); err == nil {
			return primacronPath
		}

		configPath := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order (lowest to
// highest): system < user < project. Environment variables, bound above via
// AutomaticEnv, always take final precedence over file values.
func mergeConfigFiles(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()
	userDir := filepath.Join(homeDir, ".primacron")

	configPaths := []string{
		"/etc/primacron/config.toml",
		filepath.Join(userDir, "config.toml"),
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		configPaths = append(configPaths, projectConfig)
	}

	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(configPath)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
	}
}

package configs

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var (
	//go:embed config.example.yaml
	defaultConfigYAML string

	defaultConfigOnce sync.Once
	defaultSettings   map[string]any
	defaultConfigErr  error
)

func loadDefaults() (map[string]any, error) {
	defaultConfigOnce.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(defaultConfigYAML)); err != nil {
			defaultConfigErr = fmt.Errorf("failed to read embedded config.example.yaml: %w", err)
			return
		}
		defaultSettings = v.AllSettings()
	})

	return defaultSettings, defaultConfigErr
}

// DefaultConfig returns the parsed configuration from the embedded config.example.yaml.
func DefaultConfig() (Config, error) {
	v := viper.New()
	if err := ApplyDefaults(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode embedded config.example.yaml: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults registers every embedded key as a viper default, so a partial
// config.yaml or a bare environment still decodes into a complete Config.
func ApplyDefaults(v *viper.Viper) error {
	settings, err := loadDefaults()
	if err != nil {
		return err
	}

	for key, value := range flatten("", settings) {
		v.SetDefault(key, value)
	}

	return nil
}

// BindEnvironment maps the conventional deployment variables onto config keys.
func BindEnvironment(v *viper.Viper) error {
	bindings := map[string]string{
		"wallet.private-key": "PRIVATE_KEY",
		"network.rpc-url":    "RPC_URL",
		"network.type":       "NETWORK",
		"log.level":          "LOG_LEVEL",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", env, key, err)
		}
	}

	return nil
}

func flatten(prefix string, in map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range in {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(fullKey, nested) {
				out[k] = v
			}
			continue
		}
		out[fullKey] = value
	}
	return out
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QueryConfig holds configuration for the query command.
type QueryConfig struct {
	RPCURL   string
	ABIPath  string
	Preset   string
	Address  string
	Event    string
	From     string
	To       string
	Filters  map[string]string
	Page     int
	PageSize int
	LogLevel string
}

// LoadQuery merges config file, environment variables, and flags into
// QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v := newViper()

	v.SetDefault("page", 1)
	v.SetDefault("page-size", 15)
	v.SetDefault("log-level", "info")

	if err := bind(v, cfgFile, flags); err != nil {
		return QueryConfig{}, err
	}

	cfg := QueryConfig{
		RPCURL:   v.GetString("rpc"),
		ABIPath:  v.GetString("abi"),
		Preset:   v.GetString("preset"),
		Address:  v.GetString("address"),
		Event:    v.GetString("event"),
		From:     v.GetString("from"),
		To:       v.GetString("to"),
		Filters:  parseFilterPairs(getStringSlice(v, "filter")),
		Page:     v.GetInt("page"),
		PageSize: v.GetInt("page-size"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}

// EventsConfig holds configuration for the events command.
type EventsConfig struct {
	ABIPath  string
	Preset   string
	LogLevel string
}

// LoadEvents merges config file, environment variables, and flags into
// EventsConfig.
func LoadEvents(cfgFile string, flags *pflag.FlagSet) (EventsConfig, error) {
	v := newViper()

	v.SetDefault("log-level", "info")

	if err := bind(v, cfgFile, flags); err != nil {
		return EventsConfig{}, err
	}

	return EventsConfig{
		ABIPath:  v.GetString("abi"),
		Preset:   v.GetString("preset"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("EVENTQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func bind(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return typed
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return items
	default:
		return nil
	}
}

// parseFilterPairs turns repeated "name=v1,v2" flag values into a raw
// filter map. The value side keeps its commas; splitting into a value set
// is the filter builder's job.
func parseFilterPairs(pairs []string) map[string]string {
	out := make(map[string]string)
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		out[key] = parts[1]
	}
	return out
}

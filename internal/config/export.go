package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ExportConfig holds configuration for the export command.
type ExportConfig struct {
	RPCURL            string
	ABIPath           string
	Preset            string
	Address           string
	Event             string
	From              string
	To                string
	Filters           map[string]string
	BatchSize         uint64
	Out               string
	PGDSN             string
	IncludeTimestamps bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadExport merges config file, environment variables, and flags into
// ExportConfig.
func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v := newViper()

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := bind(v, cfgFile, flags); err != nil {
		return ExportConfig{}, err
	}

	cfg := ExportConfig{
		RPCURL:            v.GetString("rpc"),
		ABIPath:           v.GetString("abi"),
		Preset:            v.GetString("preset"),
		Address:           v.GetString("address"),
		Event:             v.GetString("event"),
		From:              v.GetString("from"),
		To:                v.GetString("to"),
		Filters:           parseFilterPairs(getStringSlice(v, "filter")),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		IncludeTimestamps: v.GetBool("timestamps"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

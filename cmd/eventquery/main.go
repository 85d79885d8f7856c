package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

func main() {
	root := &cobra.Command{
		Use:          "eventquery",
		Short:        "Query and decode historical EVM contract events",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List queryable events declared by an ABI",
		RunE:  runEvents,
	}

	eventsCmd.Flags().String("abi", "", "ABI JSON file path")
	eventsCmd.Flags().String("preset", "", "preset schema (erc20, erc721)")
	eventsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(eventsCmd)

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch and decode events for one block range",
		RunE:  runQuery,
	}

	queryCmd.Flags().String("rpc", "", "RPC URL")
	queryCmd.Flags().String("abi", "", "ABI JSON file path")
	queryCmd.Flags().String("preset", "", "preset schema (erc20, erc721)")
	queryCmd.Flags().String("address", "", "contract address")
	queryCmd.Flags().String("event", "", "event name to query")
	queryCmd.Flags().String("from", "", "from block (height, latest, latest-N, ±N, or tag)")
	queryCmd.Flags().String("to", "", "to block (height, latest, latest-N, ±N, or tag)")
	queryCmd.Flags().StringArray("filter", nil, "indexed filter, name=v1,v2 (repeatable)")
	queryCmd.Flags().Int("page", 1, "result page to print (1-based)")
	queryCmd.Flags().Int("page-size", 15, "events per page")
	queryCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(queryCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export decoded events over a large range in batches",
		RunE:  runExport,
	}

	exportCmd.Flags().String("rpc", "", "RPC URL")
	exportCmd.Flags().String("abi", "", "ABI JSON file path")
	exportCmd.Flags().String("preset", "", "preset schema (erc20, erc721)")
	exportCmd.Flags().String("address", "", "contract address")
	exportCmd.Flags().String("event", "", "event name to export")
	exportCmd.Flags().String("from", "", "from block (height, earliest, latest-N, ±N)")
	exportCmd.Flags().String("to", "", "to block (height, latest, latest-N, ±N)")
	exportCmd.Flags().StringArray("filter", nil, "indexed filter, name=v1,v2 (repeatable)")
	exportCmd.Flags().Uint64("batch-size", 2000, "blocks per getLogs batch")
	exportCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	exportCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	exportCmd.Flags().Bool("timestamps", false, "enrich events with block timestamps")
	exportCmd.Flags().Int("max-retries", 5, "maximum retry attempts per batch")
	exportCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	exportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(exportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// loadCatalog reads the schema from a preset name or an ABI file and parses
// it into the event catalog.
func loadCatalog(abiPath, preset string) (schema.Catalog, error) {
	if abiPath == "" && preset == "" {
		return nil, fmt.Errorf("either --abi or --preset is required")
	}
	if abiPath != "" && preset != "" {
		return nil, fmt.Errorf("--abi and --preset are mutually exclusive")
	}

	var raw []byte
	if preset != "" {
		embedded, ok := schema.Preset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, schema.PresetNames())
		}
		raw = embedded
	} else {
		data, err := os.ReadFile(abiPath)
		if err != nil {
			return nil, fmt.Errorf("read abi: %w", err)
		}
		raw = data
	}

	return schema.ParseSchema(raw)
}

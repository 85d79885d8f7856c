package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/charlesjhongc/evm-event-parser/internal/chain"
	"github.com/charlesjhongc/evm-event-parser/internal/config"
	"github.com/charlesjhongc/evm-event-parser/internal/query"
	"github.com/charlesjhongc/evm-event-parser/internal/storage"
	"github.com/charlesjhongc/evm-event-parser/internal/storage/postgres"
)

func runExport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Event == "" {
		return fmt.Errorf("event name is required")
	}
	if !common.IsHexAddress(cfg.Address) {
		return fmt.Errorf("invalid contract address: %s", cfg.Address)
	}
	address := common.HexToAddress(cfg.Address)

	catalog, err := loadCatalog(cfg.ABIPath, cfg.Preset)
	if err != nil {
		return err
	}
	def, ok := catalog.EventByName(cfg.Event)
	if !ok {
		return fmt.Errorf("no event named %q in schema", cfg.Event)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	head, err := chainClient.HeadNumber(ctx)
	if err != nil {
		return fmt.Errorf("get chain head: %w", err)
	}

	from, err := exportBound(query.ResolveBlockTag(cfg.From, head))
	if err != nil {
		return fmt.Errorf("from block: %w", err)
	}
	to, err := exportBound(query.ResolveBlockTag(cfg.To, head))
	if err != nil {
		return fmt.Errorf("to block: %w", err)
	}

	filters := query.BuildFilters(def, cfg.Filters)

	walker, err := query.NewRangeWalker(from, to, cfg.BatchSize)
	if err != nil {
		return err
	}

	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
	}

	sink := storage.NewJsonlStorage(cfg.Out)
	engine := query.NewEngine(chainClient, logger)

	logger.Info("export start",
		zap.String("event", def.Name),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", pgStore != nil),
	)

	policy := query.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff}

	var total int
	for {
		batch, ok := walker.Next()
		if !ok {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		events, err := engine.FetchBatch(ctx, def, address, batch, filters, policy)
		if err != nil {
			return fmt.Errorf("fetch range %d-%d: %w", batch.From, batch.To, err)
		}

		for i := range events {
			events[i].ChainID = chainIDValue
			if cfg.IncludeTimestamps {
				ts, err := chainClient.BlockTimestamp(ctx, events[i].BlockNumber)
				if err != nil {
					return fmt.Errorf("block timestamp %d: %w", events[i].BlockNumber, err)
				}
				events[i].Timestamp = ts
			}
		}

		if err := sink.PutEventBatch(events); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		if pgStore != nil {
			if err := pgStore.UpsertEvents(ctx, events); err != nil {
				return fmt.Errorf("upsert events: %w", err)
			}
		}

		total += len(events)
		logger.Info("batch complete",
			zap.Int("events", len(events)),
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
		)
	}

	logger.Info("export complete", zap.Int("events", total))
	return nil
}

// exportBound pins a resolved endpoint to a concrete height: batching needs
// absolute bounds, so only "earliest" survives of the pass-through tags.
func exportBound(endpoint query.BlockEndpoint) (uint64, error) {
	if endpoint.IsTag() {
		if strings.EqualFold(endpoint.Tag(), "earliest") {
			return 0, nil
		}
		return 0, fmt.Errorf("block tag %q cannot be used for export", endpoint.Tag())
	}

	height := endpoint.Height()
	if height.Sign() < 0 || !height.IsUint64() {
		return 0, fmt.Errorf("block height %s out of range", height)
	}
	return height.Uint64(), nil
}

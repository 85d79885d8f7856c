package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/charlesjhongc/evm-event-parser/internal/chain"
	"github.com/charlesjhongc/evm-event-parser/internal/config"
	"github.com/charlesjhongc/evm-event-parser/internal/query"
)

func runQuery(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
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

	catalog, err := loadCatalog(cfg.ABIPath, cfg.Preset)
	if err != nil {
		return &query.Error{Kind: query.ErrSchema, Detail: "load schema", Err: err}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	session := query.NewSession(catalog, cfg.PageSize)
	if err := session.SelectEvent(cfg.Event); err != nil {
		return err
	}
	for name, value := range cfg.Filters {
		session.SetFilterInput(name, value)
	}

	engine := query.NewEngine(chainClient, logger)

	if !session.Begin() {
		return fmt.Errorf("a query is already in flight")
	}
	events, err := engine.FetchEvents(ctx, query.Request{
		Catalog:  catalog,
		Event:    cfg.Event,
		Address:  cfg.Address,
		FromText: cfg.From,
		ToText:   cfg.To,
		Filters:  session.FilterInputs(),
	})
	if err != nil {
		session.Fail(err)
		_, message := session.Status()
		return fmt.Errorf("%s", message)
	}
	session.Finish(events)
	session.SetPage(cfg.Page)

	encoder := json.NewEncoder(os.Stdout)
	for _, event := range session.Window() {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}

	logger.Info("query done",
		zap.String("event", cfg.Event),
		zap.Int("events", len(events)),
		zap.Int("page", session.CurrentPage()),
		zap.Int("total_pages", session.TotalPages()),
	)

	return nil
}

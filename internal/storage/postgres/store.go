package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/charlesjhongc/evm-event-parser/internal/model"
)

// Store provides Postgres persistence for exported decoded events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertEvents inserts or updates decoded events, keyed by chain, block,
// and log index. Arguments are stored as JSONB in declaration order.
func (s *Store) UpsertEvents(ctx context.Context, events []model.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		args, err := json.Marshal(event.Arguments)
		if err != nil {
			return fmt.Errorf("marshal arguments: %w", err)
		}
		batch.Queue(`
			INSERT INTO decoded_events (
				chain_id, block_number, log_index, block_hash, tx_hash,
				address, event_name, removed, block_ts, arguments, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
			ON CONFLICT (chain_id, block_number, log_index)
			DO UPDATE SET
				block_hash = EXCLUDED.block_hash,
				tx_hash = EXCLUDED.tx_hash,
				address = EXCLUDED.address,
				event_name = EXCLUDED.event_name,
				removed = EXCLUDED.removed,
				block_ts = EXCLUDED.block_ts,
				arguments = EXCLUDED.arguments,
				updated_at = now()
		`,
			int64(event.ChainID),
			int64(event.BlockNumber),
			int64(event.LogIndex),
			event.BlockHash,
			event.TxHash,
			event.Address,
			event.EventName,
			event.Removed,
			int64(event.Timestamp),
			args,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

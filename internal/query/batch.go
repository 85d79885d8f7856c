package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/charlesjhongc/evm-event-parser/internal/model"
	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

// BlockRange is an inclusive absolute block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// RangeWalker steps through an absolute block range in batches small enough
// for a node's getLogs limits. The final batch is clipped to the range end.
// It drives the bulk export loop; the interactive pipeline always issues a
// single query.
type RangeWalker struct {
	cursor uint64
	last   uint64
	step   uint64
	done   bool
}

// NewRangeWalker builds a walker over the inclusive range [from, to].
func NewRangeWalker(from, to, batchSize uint64) (*RangeWalker, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}
	return &RangeWalker{cursor: from, last: to, step: batchSize}, nil
}

// Next returns the next batch, or false once the range is exhausted.
func (w *RangeWalker) Next() (BlockRange, bool) {
	if w.done {
		return BlockRange{}, false
	}

	batch := BlockRange{From: w.cursor, To: w.last}
	if w.last-w.cursor >= w.step {
		batch.To = w.cursor + w.step - 1
	}

	if batch.To == w.last {
		w.done = true
	} else {
		w.cursor = batch.To + 1
	}
	return batch, true
}

// RetryPolicy bounds how often a failed export batch is re-issued. The
// interactive pipeline never retries; only the bulk path uses this.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// FetchBatch fetches one export batch, re-issuing the range query with
// exponential backoff until it succeeds or the policy's attempts run out.
func (e *Engine) FetchBatch(
	ctx context.Context,
	def schema.EventDefinition,
	address common.Address,
	batch BlockRange,
	filters map[string][]string,
	policy RetryPolicy,
) ([]model.DecodedEvent, error) {
	delay := policy.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		events, err := e.FetchRange(ctx, def, address, batch.From, batch.To, filters)
		if err == nil {
			return events, nil
		}
		if attempt >= policy.MaxRetries {
			return nil, err
		}

		e.logger.Warn("fetch batch failed, retrying",
			zap.Error(err),
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
			zap.Int("attempt", attempt+1),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

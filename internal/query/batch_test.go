package query

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func walkAll(t *testing.T, w *RangeWalker) []BlockRange {
	t.Helper()
	var batches []BlockRange
	for {
		batch, ok := w.Next()
		if !ok {
			return batches
		}
		batches = append(batches, batch)
	}
}

func TestRangeWalkerClipsLastBatch(t *testing.T) {
	// A head-resolved export of latest-37..latest at the default page-ish
	// batch size ends in a short batch.
	walker, err := NewRangeWalker(100, 137, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batches := walkAll(t, walker)
	want := []BlockRange{
		{From: 100, To: 114},
		{From: 115, To: 129},
		{From: 130, To: 137},
	}
	if len(batches) != len(want) {
		t.Fatalf("batch count mismatch: %+v", batches)
	}
	for i := range want {
		if batches[i] != want[i] {
			t.Fatalf("batch %d mismatch: %+v != %+v", i, batches[i], want[i])
		}
	}

	if _, ok := walker.Next(); ok {
		t.Fatalf("exhausted walker must stay exhausted")
	}
}

func TestRangeWalkerExactMultipleAndSingleBlock(t *testing.T) {
	walker, err := NewRangeWalker(0, 19, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	batches := walkAll(t, walker)
	if len(batches) != 2 || batches[1] != (BlockRange{From: 10, To: 19}) {
		t.Fatalf("exact multiple mismatch: %+v", batches)
	}

	walker, err = NewRangeWalker(5, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	batches = walkAll(t, walker)
	if len(batches) != 1 || batches[0] != (BlockRange{From: 5, To: 5}) {
		t.Fatalf("single block mismatch: %+v", batches)
	}
}

func TestRangeWalkerInvalid(t *testing.T) {
	if _, err := NewRangeWalker(10, 9, 1); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := NewRangeWalker(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

type flakyChain struct {
	failures int
	calls    int
	logs     []types.Log
}

func (f *flakyChain) HeadNumber(_ context.Context) (uint64, error) {
	return 0, nil
}

func (f *flakyChain) FetchLogs(_ context.Context, _ LogQuery) ([]types.Log, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("rate limited")
	}
	return f.logs, nil
}

func TestFetchBatchRetriesUntilSuccess(t *testing.T) {
	def := transferDef(t)
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	chain := &flakyChain{
		failures: 2,
		logs:     []types.Log{transferLog(t, def, from, to, big.NewInt(1), 105, 0)},
	}
	engine := NewEngine(chain, nil)

	events, err := engine.FetchBatch(context.Background(), def,
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		BlockRange{From: 100, To: 110}, nil,
		RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].BlockNumber != 105 {
		t.Fatalf("events mismatch: %+v", events)
	}
	if chain.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", chain.calls)
	}
}

func TestFetchBatchGivesUpAfterPolicy(t *testing.T) {
	def := transferDef(t)
	chain := &flakyChain{failures: 100}
	engine := NewEngine(chain, nil)

	_, err := engine.FetchBatch(context.Background(), def,
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		BlockRange{From: 100, To: 110}, nil,
		RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond},
	)
	if err == nil {
		t.Fatalf("expected error after retries exhausted")
	}
	if kind, ok := KindOf(err); !ok || kind != ErrQuery {
		t.Fatalf("expected query error, got %v", err)
	}
	if chain.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", chain.calls)
	}
}

func TestFetchBatchNoRetryByDefault(t *testing.T) {
	def := transferDef(t)
	chain := &flakyChain{failures: 100}
	engine := NewEngine(chain, nil)

	_, err := engine.FetchBatch(context.Background(), def,
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		BlockRange{From: 100, To: 110}, nil,
		RetryPolicy{},
	)
	if err == nil {
		t.Fatalf("expected error")
	}
	if chain.calls != 1 {
		t.Fatalf("zero-retry policy must issue a single attempt, got %d", chain.calls)
	}
}

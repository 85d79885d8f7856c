package query

import (
	"reflect"
	"testing"

	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

const transferABI = `[
  {
    "type": "event",
    "name": "Transfer",
    "inputs": [
      {"name": "holder", "type": "address", "indexed": true},
      {"name": "to", "type": "address", "indexed": true},
      {"name": "value", "type": "uint256", "indexed": false}
    ]
  }
]`

func transferDef(t *testing.T) schema.EventDefinition {
	t.Helper()
	catalog, err := schema.ParseSchema([]byte(transferABI))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	def, ok := catalog.EventByName("Transfer")
	if !ok {
		t.Fatalf("Transfer not found")
	}
	return def
}

func TestBuildFiltersSplitsAndTrims(t *testing.T) {
	def := transferDef(t)

	filters := BuildFilters(def, map[string]string{
		"holder": "0xAAA, 0xBBB",
	})

	want := map[string][]string{"holder": {"0xAAA", "0xBBB"}}
	if !reflect.DeepEqual(filters, want) {
		t.Fatalf("filters mismatch: %+v != %+v", filters, want)
	}
}

func TestBuildFiltersOmitsEmptyValues(t *testing.T) {
	def := transferDef(t)

	filters := BuildFilters(def, map[string]string{
		"holder": "",
		"to":     "   ",
	})

	if len(filters) != 0 {
		t.Fatalf("expected no filter entries, got %+v", filters)
	}
}

func TestBuildFiltersIgnoresNonIndexedParameters(t *testing.T) {
	def := transferDef(t)

	filters := BuildFilters(def, map[string]string{
		"value": "100",
	})

	if _, ok := filters["value"]; ok {
		t.Fatalf("non-indexed parameter must not produce a filter")
	}
}

func TestBuildFiltersKeepsLiteralText(t *testing.T) {
	def := transferDef(t)

	filters := BuildFilters(def, map[string]string{
		"holder": "not-an-address",
	})

	if !reflect.DeepEqual(filters["holder"], []string{"not-an-address"}) {
		t.Fatalf("malformed text must survive as a literal: %+v", filters)
	}
}

package query

import (
	"errors"
	"testing"

	"github.com/charlesjhongc/evm-event-parser/internal/model"
	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

const twoEventABI = `[
  {
    "type": "event",
    "name": "Transfer",
    "inputs": [
      {"name": "holder", "type": "address", "indexed": true},
      {"name": "to", "type": "address", "indexed": true},
      {"name": "value", "type": "uint256", "indexed": false}
    ]
  },
  {
    "type": "event",
    "name": "Approval",
    "inputs": [
      {"name": "owner", "type": "address", "indexed": true},
      {"name": "spender", "type": "address", "indexed": true},
      {"name": "value", "type": "uint256", "indexed": false}
    ]
  }
]`

func newTestSession(t *testing.T) *Session {
	t.Helper()
	catalog, err := schema.ParseSchema([]byte(twoEventABI))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return NewSession(catalog, 15)
}

func TestSelectEventResetsPageAndPrunesFilters(t *testing.T) {
	session := newTestSession(t)

	if err := session.SelectEvent("Transfer"); err != nil {
		t.Fatalf("select: %v", err)
	}
	session.SetFilterInput("holder", "0xAAA")
	session.SetFilterInput("to", "0xBBB")
	session.Finish(make([]model.DecodedEvent, 40))
	session.SetPage(3)

	if err := session.SelectEvent("Approval"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if session.CurrentPage() != 1 {
		t.Fatalf("page must reset to 1, got %d", session.CurrentPage())
	}
	inputs := session.FilterInputs()
	if _, ok := inputs["holder"]; ok {
		t.Fatalf("holder filter must be pruned")
	}
	if _, ok := inputs["to"]; ok {
		t.Fatalf("to filter must be pruned")
	}
}

func TestSelectEventKeepsSharedParameterFilters(t *testing.T) {
	twoHolderABI := `[
	  {"type": "event", "name": "A", "inputs": [{"name": "holder", "type": "address", "indexed": true}]},
	  {"type": "event", "name": "B", "inputs": [{"name": "holder", "type": "address", "indexed": true}]}
	]`
	catalog, err := schema.ParseSchema([]byte(twoHolderABI))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	shared := NewSession(catalog, 15)
	if err := shared.SelectEvent("A"); err != nil {
		t.Fatalf("select: %v", err)
	}
	shared.SetFilterInput("holder", "0xAAA")
	if err := shared.SelectEvent("B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if shared.FilterInputs()["holder"] != "0xAAA" {
		t.Fatalf("shared indexed parameter filter must survive")
	}
}

func TestFilterInputsReturnsCopy(t *testing.T) {
	session := newTestSession(t)
	if err := session.SelectEvent("Transfer"); err != nil {
		t.Fatalf("select: %v", err)
	}
	session.SetFilterInput("holder", "0xAAA")

	leaked := session.FilterInputs()
	leaked["holder"] = "0xEVIL"
	leaked["to"] = "0xEVIL"

	inputs := session.FilterInputs()
	if inputs["holder"] != "0xAAA" {
		t.Fatalf("session filter mutated through returned map: %q", inputs["holder"])
	}
	if _, ok := inputs["to"]; ok {
		t.Fatalf("session must not pick up entries added to the returned map")
	}
}

func TestSelectEventUnknownName(t *testing.T) {
	session := newTestSession(t)
	err := session.SelectEvent("Nope")
	if kind, ok := KindOf(err); !ok || kind != ErrSelection {
		t.Fatalf("expected selection error, got %v", err)
	}
}

func TestSessionBusyFlag(t *testing.T) {
	session := newTestSession(t)

	if !session.Begin() {
		t.Fatalf("first Begin must succeed")
	}
	if session.Begin() {
		t.Fatalf("second Begin must report busy")
	}
	if status, _ := session.Status(); status != StatusLoading {
		t.Fatalf("expected loading, got %s", status)
	}

	session.Finish(nil)
	if session.Busy() {
		t.Fatalf("Finish must clear busy")
	}
	if !session.Begin() {
		t.Fatalf("Begin after Finish must succeed")
	}
}

func TestSessionFailClearsResults(t *testing.T) {
	session := newTestSession(t)

	session.Begin()
	session.Finish(make([]model.DecodedEvent, 20))
	if status, _ := session.Status(); status != StatusSuccess {
		t.Fatalf("expected success, got %s", status)
	}

	session.Begin()
	if session.Results() != nil {
		t.Fatalf("Begin must clear prior results")
	}
	session.Fail(errors.New("rpc down"))

	status, message := session.Status()
	if status != StatusFailed || message != "rpc down" {
		t.Fatalf("status mismatch: %s %q", status, message)
	}
	if session.Results() != nil || session.TotalPages() != 0 {
		t.Fatalf("failure and results must be mutually exclusive")
	}
}

func TestSessionWindowAndPages(t *testing.T) {
	session := newTestSession(t)
	session.Begin()
	session.Finish(make([]model.DecodedEvent, 37))

	if session.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", session.TotalPages())
	}
	if len(session.Window()) != 15 {
		t.Fatalf("expected first window of 15, got %d", len(session.Window()))
	}

	session.SetPage(3)
	if len(session.Window()) != 7 {
		t.Fatalf("expected last window of 7, got %d", len(session.Window()))
	}

	session.SetPage(0)
	if session.CurrentPage() != 1 {
		t.Fatalf("page below 1 must clamp to 1")
	}
}

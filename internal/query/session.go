package query

import (
	"fmt"

	"github.com/charlesjhongc/evm-event-parser/internal/model"
	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

// Status is the session's presentation state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session carries all state for one query surface: the catalog, the
// selected event, raw filter inputs, the current result sequence, page
// state, and status. Everything is explicit; there is no ambient state
// shared across sessions beyond the immutable catalog.
type Session struct {
	catalog       schema.Catalog
	selectedEvent string
	filterInputs  map[string]string

	results     []model.DecodedEvent
	pageSize    int
	currentPage int

	status        Status
	statusMessage string
	busy          bool
}

// NewSession builds a session over a parsed catalog.
func NewSession(catalog schema.Catalog, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		catalog:      catalog,
		filterInputs: make(map[string]string),
		pageSize:     pageSize,
		currentPage:  1,
		status:       StatusIdle,
	}
}

// Catalog returns the session's immutable catalog.
func (s *Session) Catalog() schema.Catalog {
	return s.catalog
}

// SelectEvent switches the selected event, resets the page to 1, and drops
// filter inputs for parameters the new event does not index.
func (s *Session) SelectEvent(name string) error {
	def, ok := s.catalog.EventByName(name)
	if !ok {
		return selectionError(fmt.Sprintf("no event named %q in schema", name))
	}

	indexed := make(map[string]struct{})
	for _, param := range def.IndexedParameters() {
		indexed[param.Name] = struct{}{}
	}
	for key := range s.filterInputs {
		if _, ok := indexed[key]; !ok {
			delete(s.filterInputs, key)
		}
	}

	s.selectedEvent = name
	s.currentPage = 1
	return nil
}

// SelectedEvent returns the currently selected event definition.
func (s *Session) SelectedEvent() (schema.EventDefinition, bool) {
	return s.catalog.EventByName(s.selectedEvent)
}

// SetFilterInput records raw filter text for a parameter name.
func (s *Session) SetFilterInput(name, value string) {
	s.filterInputs[name] = value
}

// FilterInputs returns a copy of the raw filter inputs keyed by parameter
// name. Mutating the copy does not touch the session; use SetFilterInput.
func (s *Session) FilterInputs() map[string]string {
	inputs := make(map[string]string, len(s.filterInputs))
	for name, value := range s.filterInputs {
		inputs[name] = value
	}
	return inputs
}

// Begin marks a query in flight. It returns false while another query is
// outstanding; the flag is advisory only, callers must serialize.
func (s *Session) Begin() bool {
	if s.busy {
		return false
	}
	s.busy = true
	s.status = StatusLoading
	s.statusMessage = ""
	s.results = nil
	return true
}

// Finish installs a new result sequence and resets the page to 1.
func (s *Session) Finish(results []model.DecodedEvent) {
	s.busy = false
	s.status = StatusSuccess
	s.statusMessage = ""
	s.results = results
	s.currentPage = 1
}

// Fail records a query failure. Prior results were already cleared by
// Begin: an error banner and result data are mutually exclusive.
func (s *Session) Fail(err error) {
	s.busy = false
	s.status = StatusFailed
	if err != nil {
		s.statusMessage = err.Error()
	}
	s.results = nil
	s.currentPage = 1
}

// Busy reports whether a query is in flight.
func (s *Session) Busy() bool {
	return s.busy
}

// Status returns the presentation status and, for failures, its message.
func (s *Session) Status() (Status, string) {
	return s.status, s.statusMessage
}

// Results returns the full decoded sequence of the last successful query.
func (s *Session) Results() []model.DecodedEvent {
	return s.results
}

// CurrentPage returns the 1-based current page.
func (s *Session) CurrentPage() int {
	return s.currentPage
}

// SetPage moves to a 1-based page. Values below 1 clamp to 1; pages past
// the end simply yield an empty window.
func (s *Session) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.currentPage = page
}

// Window returns the current page of results.
func (s *Session) Window() []model.DecodedEvent {
	return Page(s.results, s.pageSize, s.currentPage)
}

// TotalPages returns the page count for the current results.
func (s *Session) TotalPages() int {
	return TotalPages(s.results, s.pageSize)
}

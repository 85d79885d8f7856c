package query

import (
	"github.com/charlesjhongc/evm-event-parser/internal/model"
)

// DefaultPageSize is the page size used when a caller does not pick one.
const DefaultPageSize = 15

// Page returns the 1-based pageNumber window of the decoded sequence,
// clipped to its bounds. Out-of-range page numbers yield an empty window,
// never an error.
func Page(events []model.DecodedEvent, pageSize, pageNumber int) []model.DecodedEvent {
	if pageSize <= 0 || pageNumber < 1 {
		return nil
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(events) {
		return nil
	}
	end := start + pageSize
	if end > len(events) {
		end = len(events)
	}
	return events[start:end]
}

// TotalPages returns ceil(len(events)/pageSize), 0 for an empty sequence.
func TotalPages(events []model.DecodedEvent, pageSize int) int {
	if pageSize <= 0 || len(events) == 0 {
		return 0
	}
	return (len(events) + pageSize - 1) / pageSize
}

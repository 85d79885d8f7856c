package storage

import "github.com/charlesjhongc/evm-event-parser/internal/model"

// Storage defines a sink for decoded events.
type Storage interface {
	PutEventBatch(events []model.DecodedEvent) error
}

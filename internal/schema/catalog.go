package schema

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// EventParameter is a single declared event input.
type EventParameter struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
}

// EventDefinition is a named event with its inputs in declaration order.
// ABIEvent carries the parsed form used for topic derivation and decoding.
type EventDefinition struct {
	Name       string
	Parameters []EventParameter
	ABIEvent   abi.Event
}

// IndexedParameters returns the parameters eligible for topic filtering,
// in declaration order.
func (d EventDefinition) IndexedParameters() []EventParameter {
	indexed := make([]EventParameter, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Indexed {
			indexed = append(indexed, p)
		}
	}
	return indexed
}

// Signature renders the canonical event signature, e.g. Transfer(address,address,uint256).
func (d EventDefinition) Signature() string {
	return d.ABIEvent.Sig
}

// Catalog is the ordered set of event definitions parsed from one ABI.
type Catalog []EventDefinition

// EventNames returns all event names in declaration order.
func (c Catalog) EventNames() []string {
	names := make([]string, 0, len(c))
	for _, def := range c {
		names = append(names, def.Name)
	}
	return names
}

// EventByName returns the first event declared with the given name.
// Overloaded ABIs may declare the same name twice; the first declaration
// wins, matching selection order in the catalog.
func (c Catalog) EventByName(name string) (EventDefinition, bool) {
	for _, def := range c {
		if def.Name == name {
			return def, true
		}
	}
	return EventDefinition{}, false
}

// SchemaError reports a malformed or event-less ABI document.
type SchemaError struct {
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("schema: %s", e.Detail)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

type rawParameter struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	InternalType string         `json:"internalType"`
	Indexed      bool           `json:"indexed"`
	Components   []rawParameter `json:"components"`
}

type rawEntry struct {
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Anonymous bool           `json:"anonymous"`
	Inputs    []rawParameter `json:"inputs"`
}

// ParseSchema parses raw ABI JSON into a catalog of event definitions.
// Non-event entries are skipped. The catalog preserves declaration order,
// which abi.JSON would lose (its Events map also renames overloads), so the
// array is walked directly and each event is assembled with abi.NewType and
// abi.NewEvent. Parsing is pure; the same input always yields the same
// catalog. Fails with *SchemaError when the document is not valid ABI JSON
// or declares no events.
func ParseSchema(raw []byte) (Catalog, error) {
	var entries []rawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &SchemaError{Detail: "invalid ABI JSON", Err: err}
	}

	catalog := make(Catalog, 0, len(entries))
	for i, entry := range entries {
		if entry.Type != "event" {
			continue
		}
		if entry.Name == "" {
			return nil, &SchemaError{Detail: fmt.Sprintf("event entry %d has no name", i)}
		}

		def, err := buildEvent(entry)
		if err != nil {
			return nil, &SchemaError{Detail: fmt.Sprintf("event %s", entry.Name), Err: err}
		}
		catalog = append(catalog, def)
	}

	if len(catalog) == 0 {
		return nil, &SchemaError{Detail: "ABI declares no events"}
	}
	return catalog, nil
}

func buildEvent(entry rawEntry) (EventDefinition, error) {
	params := make([]EventParameter, 0, len(entry.Inputs))
	args := make(abi.Arguments, 0, len(entry.Inputs))

	for i, input := range entry.Inputs {
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}

		typ, err := abi.NewType(input.Type, input.InternalType, components(input.Components))
		if err != nil {
			return EventDefinition{}, fmt.Errorf("parameter %s: %w", name, err)
		}

		params = append(params, EventParameter{Name: name, Type: input.Type, Indexed: input.Indexed})
		args = append(args, abi.Argument{Name: name, Type: typ, Indexed: input.Indexed})
	}

	event := abi.NewEvent(entry.Name, entry.Name, entry.Anonymous, args)
	return EventDefinition{Name: entry.Name, Parameters: params, ABIEvent: event}, nil
}

func components(params []rawParameter) []abi.ArgumentMarshaling {
	if len(params) == 0 {
		return nil
	}
	out := make([]abi.ArgumentMarshaling, 0, len(params))
	for _, p := range params {
		out = append(out, abi.ArgumentMarshaling{
			Name:         p.Name,
			Type:         p.Type,
			InternalType: p.InternalType,
			Components:   components(p.Components),
			Indexed:      p.Indexed,
		})
	}
	return out
}

package query

import (
	"strings"

	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

// BuildFilters turns raw per-parameter filter text into a value-set filter
// keyed by parameter name. Only parameters marked indexed on the selected
// event participate; raw values are comma-split and trimmed, and empty or
// whitespace-only inputs are omitted entirely. No type validation happens
// here: coercion is the chain client's job at query time, and text that
// fails coercion there still matches as a literal string.
func BuildFilters(def schema.EventDefinition, raw map[string]string) map[string][]string {
	filters := make(map[string][]string)
	for _, param := range def.Parameters {
		if !param.Indexed {
			continue
		}
		values := splitAndClean(raw[param.Name])
		if len(values) == 0 {
			continue
		}
		filters[param.Name] = values
	}
	return filters
}

func splitAndClean(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

package query

import (
	"math/big"
	"regexp"
	"strings"
)

// BlockEndpoint is one side of a block range: either an absolute height or
// a pass-through tag left for the chain client to interpret. Heights are
// big.Int so a relative expression below zero survives unclamped; rejecting
// it is the client's call.
type BlockEndpoint struct {
	height *big.Int
	tag    string
}

// HeightEndpoint wraps an absolute block height.
func HeightEndpoint(height *big.Int) BlockEndpoint {
	return BlockEndpoint{height: height}
}

// TagEndpoint wraps a pass-through tag such as "earliest" or "pending".
func TagEndpoint(tag string) BlockEndpoint {
	return BlockEndpoint{tag: tag}
}

// IsTag reports whether the endpoint is a pass-through tag.
func (e BlockEndpoint) IsTag() bool {
	return e.height == nil
}

// Height returns the absolute height, or nil for tag endpoints.
func (e BlockEndpoint) Height() *big.Int {
	return e.height
}

// Tag returns the pass-through tag, or "" for height endpoints.
func (e BlockEndpoint) Tag() string {
	return e.tag
}

func (e BlockEndpoint) String() string {
	if e.IsTag() {
		return e.tag
	}
	return e.height.String()
}

var (
	latestOffsetPattern = regexp.MustCompile(`^(?i:latest)\s*([+-])\s*([0-9]+)$`)
	signedIntPattern    = regexp.MustCompile(`^([+-]?)([0-9]+)$`)
)

// ResolveBlockTag evaluates a block range endpoint expression against the
// current chain head. The grammar, in precedence order:
//
//	""            -> head
//	"latest"      -> head (case-insensitive)
//	"latest±N"    -> head±N, optional whitespace around the sign
//	"+N" / "-N"   -> head±N
//	"N"           -> absolute height N
//	anything else -> pass-through tag, verbatim, never an error
//
// Both endpoints of one query must resolve against the same fetched head so
// the range stays internally consistent.
func ResolveBlockTag(text string, head uint64) BlockEndpoint {
	trimmed := strings.TrimSpace(text)
	headHeight := new(big.Int).SetUint64(head)

	if trimmed == "" || strings.EqualFold(trimmed, "latest") {
		return HeightEndpoint(headHeight)
	}

	if m := latestOffsetPattern.FindStringSubmatch(trimmed); m != nil {
		return HeightEndpoint(applyOffset(headHeight, m[1], m[2]))
	}

	if m := signedIntPattern.FindStringSubmatch(trimmed); m != nil {
		if m[1] == "" {
			absolute, _ := new(big.Int).SetString(m[2], 10)
			return HeightEndpoint(absolute)
		}
		return HeightEndpoint(applyOffset(headHeight, m[1], m[2]))
	}

	// Unrecognized text is carried verbatim, not trimmed, so the client
	// sees exactly what the caller wrote.
	return TagEndpoint(text)
}

func newHeight(block uint64) *big.Int {
	return new(big.Int).SetUint64(block)
}

func applyOffset(head *big.Int, sign, digits string) *big.Int {
	offset, _ := new(big.Int).SetString(digits, 10)
	if sign == "-" {
		return new(big.Int).Sub(head, offset)
	}
	return new(big.Int).Add(head, offset)
}

package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

// BuildTopics converts a per-parameter value-set filter into the topic
// matrix eth_getLogs expects. Values are coerced by the parameter's
// declared type before hashing with abi.MakeTopics; a value that does not
// parse as its type participates as a literal string instead, which hashes
// to a non-matching topic rather than raising an error.
func BuildTopics(def schema.EventDefinition, filters map[string][]string) ([][]common.Hash, error) {
	indexed := make(abi.Arguments, 0, len(def.ABIEvent.Inputs))
	for _, arg := range def.ABIEvent.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	sets := make([][]interface{}, len(indexed))
	for i, arg := range indexed {
		values := filters[arg.Name]
		set := make([]interface{}, 0, len(values))
		for _, value := range values {
			set = append(set, coerceFilterValue(arg.Type, value))
		}
		sets[i] = set
	}

	argTopics, err := abi.MakeTopics(sets...)
	if err != nil {
		return nil, err
	}

	topics := make([][]common.Hash, 0, len(argTopics)+1)
	topics = append(topics, []common.Hash{def.ABIEvent.ID})
	topics = append(topics, argTopics...)
	return topics, nil
}

func coerceFilterValue(typ abi.Type, raw string) interface{} {
	switch typ.T {
	case abi.AddressTy:
		if common.IsHexAddress(raw) {
			return common.HexToAddress(raw)
		}
	case abi.UintTy, abi.IntTy:
		// Base 0 accepts decimal and 0x-prefixed hex, signed either way.
		if n, ok := new(big.Int).SetString(raw, 0); ok {
			return n
		}
	case abi.BoolTy:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			return true
		case "false":
			return false
		}
	case abi.FixedBytesTy, abi.HashTy:
		if data, err := hexutil.Decode(raw); err == nil && len(data) <= common.HashLength {
			var h common.Hash
			copy(h[:], data)
			return h
		}
	}
	return raw
}

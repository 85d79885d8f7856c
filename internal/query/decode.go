package query

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/charlesjhongc/evm-event-parser/internal/model"
	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

// DecodeLog decodes one raw log against an event definition. Arguments are
// assembled by walking the parameters in declaration order: indexed values
// come from the topics, the rest from unpacking the data section. One
// generic routine serves every event shape; there is no per-event code.
func DecodeLog(def schema.EventDefinition, lg types.Log) (model.DecodedEvent, error) {
	inputs := def.ABIEvent.Inputs
	indexed := make(abi.Arguments, 0, len(inputs))
	for _, arg := range inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	// Anonymous events carry no signature topic.
	topicCursor := 1
	if def.ABIEvent.Anonymous {
		topicCursor = 0
	}
	if len(lg.Topics) != len(indexed)+topicCursor {
		return model.DecodedEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+topicCursor, len(lg.Topics))
	}

	nonIndexedValues, err := inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return model.DecodedEvent{}, fmt.Errorf("unpack %s data: %w", def.Name, err)
	}

	args := make(model.Arguments, 0, len(inputs))
	valueCursor := 0
	for i, arg := range inputs {
		var value interface{}
		if arg.Indexed {
			value = decodeTopic(arg.Type, lg.Topics[topicCursor])
			topicCursor++
		} else {
			if valueCursor >= len(nonIndexedValues) {
				return model.DecodedEvent{}, fmt.Errorf("missing data value for parameter %s", arg.Name)
			}
			value = nonIndexedValues[valueCursor]
			valueCursor++
		}
		args = append(args, model.Argument{
			Name:  def.Parameters[i].Name,
			Value: normalizeValue(value),
		})
	}

	return model.DecodedEvent{
		BlockNumber: lg.BlockNumber,
		BlockHash:   lg.BlockHash.Hex(),
		TxHash:      lg.TxHash.Hex(),
		LogIndex:    uint64(lg.Index),
		Address:     lg.Address.Hex(),
		EventName:   def.Name,
		Removed:     lg.Removed,
		Arguments:   args,
	}, nil
}

var twoPow256 = new(big.Int).Lsh(big.NewInt(1), 256)

// decodeTopic recovers an indexed value from its 32-byte topic. Dynamic
// types (string, bytes, slices, tuples) are stored on chain as their hash,
// so only the topic hex can be recovered for them.
func decodeTopic(typ abi.Type, topic common.Hash) interface{} {
	switch typ.T {
	case abi.AddressTy:
		return common.BytesToAddress(topic[12:])
	case abi.UintTy:
		return new(big.Int).SetBytes(topic[:])
	case abi.IntTy:
		value := new(big.Int).SetBytes(topic[:])
		if value.Bit(255) == 1 {
			value.Sub(value, twoPow256)
		}
		return value
	case abi.BoolTy:
		return topic[31] == 1
	case abi.FixedBytesTy:
		return hexutil.Encode(topic[:typ.Size])
	case abi.HashTy:
		return topic
	default:
		return topic.Hex()
	}
}

// normalizeValue converts a decoded value into its display form. Anything
// backed by an arbitrary-precision integer becomes a decimal string so no
// precision is lost downstream; other kinds pass through, with byte blobs
// and addresses rendered as hex.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case common.Address:
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	case bool, string:
		return v
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			data := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(data), rv)
			return hexutil.Encode(data)
		}
		return normalizeSequence(rv)
	case reflect.Slice:
		return normalizeSequence(rv)
	default:
		return value
	}
}

func normalizeSequence(rv reflect.Value) []interface{} {
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = normalizeValue(rv.Index(i).Interface())
	}
	return out
}

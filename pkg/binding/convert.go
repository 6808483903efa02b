package binding

import (
	"math"
	"sort"
)

// FromGo converts a plain Go value (as decoded from JSON or stored as a
// property) into a Value. Unsupported types become NULL. Unsigned values
// beyond the int64 range become doubles.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return fromUint(uint64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		return fromUint(x)
	case float32:
		return Double(float64(x))
	case float64:
		// JSON numbers decode as float64; keep integral values integral.
		if i, ok := Double(x).AsInt(); ok && x >= -1<<53 && x <= 1<<53 {
			return Int(i)
		}
		return Double(x)
	case string:
		return String(x)
	case []string:
		items := make([]Value, len(x))
		for i, s := range x {
			items[i] = String(s)
		}
		return List(items...)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromGo(item)
		}
		return List(items...)
	case []Value:
		return List(x...)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = FromGo(item)
		}
		return Map(m)
	case map[string]Value:
		return Map(x)
	}
	return Null
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Double(float64(u))
	}
	return Int(int64(u))
}

// Go converts v into a plain Go value suitable for JSON encoding.
// References convert to their numeric id or name.
func (v Value) Go() any {
	switch v.typ {
	case TypeNull:
		return nil
	case TypeBool:
		return v.i != 0
	case TypeInt:
		return v.i
	case TypeDouble:
		return v.f
	case TypeString, TypeLabel, TypeNamedNode:
		return v.s
	case TypeNode, TypeAnonNode, TypeEdge:
		return uint64(v.i)
	case TypeList:
		out := make([]any, len(v.l))
		for i, item := range v.l {
			out[i] = item.Go()
		}
		return out
	case TypeMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Go()
		}
		return out
	}
	return nil
}

// ScalarProperties keeps only the scalar entries (string, integer, double,
// boolean) of props. Nested lists and maps are dropped.
func ScalarProperties(props map[string]Value) map[string]Value {
	out := make(map[string]Value, len(props))
	for k, v := range props {
		if v.IsScalar() {
			out[k] = v
		}
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package binding provides the runtime value model of the execution core.
//
// A Value is a tagged union over null, boolean, integer, double, string,
// node reference, edge reference, label reference, list and map. A Binding is
// the fixed-size slot array that every iterator of one query writes its rows into.
//
// Values carry two discriminators:
//   - Generic(): the coarse category (is it a node, is it list-shaped, ...)
//   - Type(): the specific type inside that category
//
// Example:
//
//	reg := binding.NewRegistry()
//	x := reg.Declare("x")
//	b := binding.New(reg.Len())
//	b.Add(x, binding.Int(42))
//	fmt.Println(b.Get(x)) // 42
package binding

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// GenericType is the coarse type tag of a Value.
type GenericType uint8

const (
	GenericNull GenericType = iota
	GenericBool
	GenericNumber
	GenericString
	GenericNode
	GenericEdge
	GenericLabel
	GenericList
	GenericMap
)

// Type is the specific type tag of a Value.
type Type uint8

const (
	TypeNull Type = iota
	TypeBool
	TypeInt
	TypeDouble
	TypeString
	// TypeNode references a node stored in the graph by numeric id.
	TypeNode
	// TypeNamedNode references a node by a stable external name.
	TypeNamedNode
	// TypeAnonNode references an anonymous node by a query-local id.
	TypeAnonNode
	TypeEdge
	TypeLabel
	TypeList
	TypeMap
)

var typeNames = [...]string{
	TypeNull:      "NULL",
	TypeBool:      "BOOLEAN",
	TypeInt:       "INTEGER",
	TypeDouble:    "FLOAT",
	TypeString:    "STRING",
	TypeNode:      "NODE",
	TypeNamedNode: "NAMED_NODE",
	TypeAnonNode:  "ANON_NODE",
	TypeEdge:      "RELATIONSHIP",
	TypeLabel:     "LABEL",
	TypeList:      "LIST",
	TypeMap:       "MAP",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Generic returns the coarse category of t.
func (t Type) Generic() GenericType {
	switch t {
	case TypeBool:
		return GenericBool
	case TypeInt, TypeDouble:
		return GenericNumber
	case TypeString:
		return GenericString
	case TypeNode, TypeNamedNode, TypeAnonNode:
		return GenericNode
	case TypeEdge:
		return GenericEdge
	case TypeLabel:
		return GenericLabel
	case TypeList:
		return GenericList
	case TypeMap:
		return GenericMap
	default:
		return GenericNull
	}
}

// Value is the engine's only runtime value type. The zero Value is NULL.
//
// Values are immutable once built; lists and maps must not be modified after
// construction because bindings share them by reference.
type Value struct {
	typ Type
	i   int64 // bool (0/1), integer, node/edge ids
	f   float64
	s   string // string, label, named node
	l   []Value
	m   map[string]Value
}

// Null is the NULL value.
var Null = Value{}

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{typ: TypeBool, i: 1}
	}
	return Value{typ: TypeBool}
}

// Int returns an integer value.
func Int(i int64) Value { return Value{typ: TypeInt, i: i} }

// Double returns a floating point value.
func Double(f float64) Value { return Value{typ: TypeDouble, f: f} }

// String returns a string value.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// Node returns a reference to a stored graph node.
func Node(id uint64) Value { return Value{typ: TypeNode, i: int64(id)} }

// NamedNode returns a reference to a node identified by name.
func NamedNode(name string) Value { return Value{typ: TypeNamedNode, s: name} }

// AnonNode returns a reference to an anonymous node.
func AnonNode(id uint64) Value { return Value{typ: TypeAnonNode, i: int64(id)} }

// Edge returns a reference to a stored graph edge.
func Edge(id uint64) Value { return Value{typ: TypeEdge, i: int64(id)} }

// Label returns a label reference.
func Label(name string) Value { return Value{typ: TypeLabel, s: name} }

// List returns a list value. The slice is retained.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{typ: TypeList, l: items}
}

// Map returns a map value. The map is retained.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{typ: TypeMap, m: m}
}

// Type returns the specific type tag.
func (v Value) Type() Type { return v.typ }

// Generic returns the coarse type tag.
func (v Value) Generic() GenericType { return v.typ.Generic() }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// IsNodeLike reports whether v is any of the node reference kinds.
func (v Value) IsNodeLike() bool {
	if v.Generic() != GenericNode {
		return false
	}
	switch v.typ {
	case TypeNode, TypeNamedNode, TypeAnonNode:
		return true
	}
	return false
}

// IsScalar reports whether v is a string, integer, double or boolean.
func (v Value) IsScalar() bool {
	switch v.typ {
	case TypeBool, TypeInt, TypeDouble, TypeString:
		return true
	}
	return false
}

// AsBool returns the boolean payload; ok is false for non-boolean values.
func (v Value) AsBool() (b bool, ok bool) {
	if v.typ != TypeBool {
		return false, false
	}
	return v.i != 0, true
}

// AsInt returns the integer payload; doubles with an integral value convert.
func (v Value) AsInt() (int64, bool) {
	switch v.typ {
	case TypeInt:
		return v.i, true
	case TypeDouble:
		if v.f == math.Trunc(v.f) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// AsDouble returns the numeric payload as float64.
func (v Value) AsDouble() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.i), true
	case TypeDouble:
		return v.f, true
	}
	return 0, false
}

// AsString returns the payload of strings, labels and named nodes.
func (v Value) AsString() (string, bool) {
	switch v.typ {
	case TypeString, TypeLabel, TypeNamedNode:
		return v.s, true
	}
	return "", false
}

// ID returns the numeric id of node and edge references.
func (v Value) ID() (uint64, bool) {
	switch v.typ {
	case TypeNode, TypeAnonNode, TypeEdge:
		return uint64(v.i), true
	}
	return 0, false
}

// Items returns the elements of a list value.
func (v Value) Items() []Value {
	if v.typ != TypeList {
		return nil
	}
	return v.l
}

// Entries returns the entries of a map value.
func (v Value) Entries() map[string]Value {
	if v.typ != TypeMap {
		return nil
	}
	return v.m
}

// Equal reports structural equality for scalars, lists and maps and identity
// equality for references. Integers and doubles compare numerically. Node and
// edge references never compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.Generic() != o.Generic() {
		return false
	}
	switch v.Generic() {
	case GenericNull:
		return true
	case GenericBool:
		return v.i == o.i
	case GenericNumber:
		if v.typ == TypeInt && o.typ == TypeInt {
			return v.i == o.i
		}
		a, _ := v.AsDouble()
		b, _ := o.AsDouble()
		return a == b
	case GenericString, GenericLabel:
		return v.s == o.s
	case GenericNode:
		if v.typ != o.typ {
			return false
		}
		if v.typ == TypeNamedNode {
			return v.s == o.s
		}
		return v.i == o.i
	case GenericEdge:
		return v.i == o.i
	case GenericList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	case GenericMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := o.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for display and for tabular output.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBool:
		return strconv.FormatBool(v.i != 0)
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeString, TypeNamedNode:
		return v.s
	case TypeLabel:
		return ":" + v.s
	case TypeNode, TypeAnonNode, TypeEdge:
		return strconv.FormatUint(uint64(v.i), 10)
	case TypeList:
		parts := make([]string, len(v.l))
		for i, item := range v.l {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

package storage

import (
	"encoding/binary"
)

// Key prefixes for BadgerDB storage organization.
// Ids are big-endian so prefix scans return them in ascending order.
const (
	prefixNode       = byte(0x01) // node:nodeID -> JSON(nodeRecord)
	prefixEdge       = byte(0x02) // edge:edgeID -> JSON(edgeRecord)
	prefixLabelIndex = byte(0x03) // label:labelID:nodeID -> empty
	prefixNodeLabels = byte(0x04) // nodelabel:nodeID:labelID -> empty
	prefixTypeIndex  = byte(0x05) // type:typeID:edgeID -> empty
	prefixProperty   = byte(0x06) // prop:kind:entityID:keyID -> JSON(value)
	prefixToken      = byte(0x07) // token:kind:name -> tokenID
	prefixTokenName  = byte(0x08) // tokenname:kind:tokenID -> name
	prefixSequence   = byte(0x09) // seq:kind -> last allocated tokenID
)

// tokenKind separates the label, relationship type and property key dictionaries.
type tokenKind byte

const (
	tokenLabel   tokenKind = 'L'
	tokenType    tokenKind = 'T'
	tokenPropKey tokenKind = 'P'
)

// entityKind separates node and edge properties in the property index.
type entityKind byte

const (
	entityNode entityKind = 'n'
	entityEdge entityKind = 'e'
)

func appendID(key []byte, id uint64) []byte {
	return binary.BigEndian.AppendUint64(key, id)
}

func nodeKey(id uint64) []byte {
	return appendID([]byte{prefixNode}, id)
}

func edgeKey(id uint64) []byte {
	return appendID([]byte{prefixEdge}, id)
}

// labelIndexKey creates a key for the label index.
// Format: prefix + labelID + nodeID
func labelIndexKey(labelID, nodeID uint64) []byte {
	key := make([]byte, 0, 17)
	key = append(key, prefixLabelIndex)
	key = appendID(key, labelID)
	return appendID(key, nodeID)
}

func labelIndexPrefix(labelID uint64) []byte {
	return appendID([]byte{prefixLabelIndex}, labelID)
}

// nodeLabelKey is the reverse of labelIndexKey, keyed by entity first.
func nodeLabelKey(nodeID, labelID uint64) []byte {
	key := make([]byte, 0, 17)
	key = append(key, prefixNodeLabels)
	key = appendID(key, nodeID)
	return appendID(key, labelID)
}

func typeIndexKey(typeID, edgeID uint64) []byte {
	key := make([]byte, 0, 17)
	key = append(key, prefixTypeIndex)
	key = appendID(key, typeID)
	return appendID(key, edgeID)
}

func typeIndexPrefix(typeID uint64) []byte {
	return appendID([]byte{prefixTypeIndex}, typeID)
}

// propertyKey creates a key for the property index.
// Format: prefix + kind + entityID + keyID
func propertyKey(kind entityKind, entityID, keyID uint64) []byte {
	key := make([]byte, 0, 18)
	key = append(key, prefixProperty, byte(kind))
	key = appendID(key, entityID)
	return appendID(key, keyID)
}

func propertyPrefix(kind entityKind, entityID uint64) []byte {
	return appendID([]byte{prefixProperty, byte(kind)}, entityID)
}

func tokenKey(kind tokenKind, name string) []byte {
	key := make([]byte, 0, 2+len(name))
	key = append(key, prefixToken, byte(kind))
	return append(key, name...)
}

func tokenNameKey(kind tokenKind, id uint64) []byte {
	return appendID([]byte{prefixTokenName, byte(kind)}, id)
}

func tokenNamePrefix(kind tokenKind) []byte {
	return []byte{prefixTokenName, byte(kind)}
}

func sequenceKey(kind tokenKind) []byte {
	return []byte{prefixSequence, byte(kind)}
}

// trailingID extracts the last 8 bytes of an index key.
func trailingID(key []byte) uint64 {
	if len(key) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

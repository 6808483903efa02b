package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerEngine provides persistent storage of the live graph using BadgerDB.
//
// Key Structure:
//   - Nodes: 0x01 + nodeID -> JSON(labels)
//   - Edges: 0x02 + edgeID -> JSON(source, target, type)
//   - Label Index: 0x03 + labelID + nodeID -> empty
//   - Node Labels: 0x04 + nodeID + labelID -> empty
//   - Type Index: 0x05 + typeID + edgeID -> empty
//   - Property Index: 0x06 + kind + entityID + keyID -> JSON(value)
//   - Token dictionaries: 0x07 (name -> id) and 0x08 (id -> name)
//   - Token sequences: 0x09 + kind -> last allocated token id
//
// Thread Safety:
//
//	Safe for concurrent use from multiple goroutines.
type BadgerEngine struct {
	db     *badger.DB
	log    *logrus.Entry
	mu     sync.RWMutex
	closed bool
}

// BadgerOptions configures the BadgerDB engine.
type BadgerOptions struct {
	// DataDir is the directory for storing data files. Ignored when InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode. Useful for testing.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool

	// Logger receives engine and BadgerDB internal logging.
	// If nil, BadgerDB logging is silenced.
	Logger *logrus.Entry
}

// NewBadgerEngine opens a persistent engine in dataDir.
func NewBadgerEngine(dataDir string) (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{DataDir: dataDir})
}

// NewBadgerEngineInMemory creates an in-memory engine for tests.
func NewBadgerEngineInMemory() (*BadgerEngine, error) {
	return NewBadgerEngineWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerEngineWithOptions creates a BadgerEngine with custom configuration.
func NewBadgerEngineWithOptions(opts BadgerOptions) (*BadgerEngine, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	log := opts.Logger
	if log != nil {
		badgerOpts = badgerOpts.WithLogger(log)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	// Keep the footprint small; the execution core only issues index scans.
	badgerOpts = badgerOpts.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerEngine{
		db:  db,
		log: log.WithField("component", "storage"),
	}, nil
}

// Close closes the underlying database.
func (b *BadgerEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *BadgerEngine) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrStorageClosed
	}
	return nil
}

// ============================================================================
// Token dictionaries
// ============================================================================

// token returns the id for name, allocating one when create is set.
// A missing token without create returns (0, false, nil).
func token(txn *badger.Txn, kind tokenKind, name string, create bool) (uint64, bool, error) {
	item, err := txn.Get(tokenKey(kind, name))
	if err == nil {
		var id uint64
		err = item.Value(func(val []byte) error {
			id = binary.BigEndian.Uint64(val)
			return nil
		})
		return id, err == nil, err
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, err
	}
	if !create {
		return 0, false, nil
	}

	var last uint64
	seq, err := txn.Get(sequenceKey(kind))
	switch {
	case err == nil:
		if err := seq.Value(func(val []byte) error {
			last = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, false, err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return 0, false, err
	}

	id := last + 1
	buf := binary.BigEndian.AppendUint64(nil, id)
	if err := txn.Set(sequenceKey(kind), buf); err != nil {
		return 0, false, err
	}
	if err := txn.Set(tokenKey(kind, name), buf); err != nil {
		return 0, false, err
	}
	if err := txn.Set(tokenNameKey(kind, id), []byte(name)); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func tokenName(txn *badger.Txn, kind tokenKind, id uint64) (string, error) {
	item, err := txn.Get(tokenNameKey(kind, id))
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	return string(val), err
}

func (b *BadgerEngine) tokenNames(kind tokenKind) ([]string, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var names []string
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := tokenNamePrefix(kind)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			names = append(names, string(val))
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

// Labels returns every label name ever used, sorted.
func (b *BadgerEngine) Labels() ([]string, error) { return b.tokenNames(tokenLabel) }

// RelationshipTypes returns every relationship type ever used, sorted.
func (b *BadgerEngine) RelationshipTypes() ([]string, error) { return b.tokenNames(tokenType) }

// PropertyKeys returns every property key ever used, sorted.
func (b *BadgerEngine) PropertyKeys() ([]string, error) { return b.tokenNames(tokenPropKey) }

// ============================================================================
// Writes
// ============================================================================

type edgeRecord struct {
	Source uint64 `json:"source"`
	Target uint64 `json:"target"`
	Type   string `json:"type"`
}

// CreateNode stores node and indexes its labels and properties.
func (b *BadgerEngine) CreateNode(node *Node) error {
	if node == nil {
		return ErrInvalidData
	}
	if node.ID == 0 {
		return ErrInvalidID
	}
	if err := b.checkOpen(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		key := nodeKey(node.ID)
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(node.Labels)
		if err != nil {
			return fmt.Errorf("failed to encode node: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		for _, label := range node.Labels {
			labelID, _, err := token(txn, tokenLabel, label, true)
			if err != nil {
				return err
			}
			if err := txn.Set(labelIndexKey(labelID, node.ID), []byte{}); err != nil {
				return err
			}
			if err := txn.Set(nodeLabelKey(node.ID, labelID), []byte{}); err != nil {
				return err
			}
		}
		return setProperties(txn, entityNode, node.ID, node.Properties)
	})
}

// CreateEdge stores edge; both endpoints must already exist.
func (b *BadgerEngine) CreateEdge(edge *Edge) error {
	if edge == nil {
		return ErrInvalidData
	}
	if edge.ID == 0 {
		return ErrInvalidID
	}
	if err := b.checkOpen(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		key := edgeKey(edge.ID)
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		for _, endpoint := range []uint64{edge.Source, edge.Target} {
			if _, err := txn.Get(nodeKey(endpoint)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return ErrInvalidEdge
				}
				return err
			}
		}

		data, err := json.Marshal(edgeRecord{Source: edge.Source, Target: edge.Target, Type: edge.Type})
		if err != nil {
			return fmt.Errorf("failed to encode edge: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		typeID, _, err := token(txn, tokenType, edge.Type, true)
		if err != nil {
			return err
		}
		if err := txn.Set(typeIndexKey(typeID, edge.ID), []byte{}); err != nil {
			return err
		}
		return setProperties(txn, entityEdge, edge.ID, edge.Properties)
	})
}

func setProperties(txn *badger.Txn, kind entityKind, id uint64, props map[string]any) error {
	for name, value := range props {
		keyID, _, err := token(txn, tokenPropKey, name, true)
		if err != nil {
			return err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode property %q: %w", name, err)
		}
		if err := txn.Set(propertyKey(kind, id, keyID), data); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Reads
// ============================================================================

// GetNode returns the node with id, including its properties.
func (b *BadgerEngine) GetNode(id uint64) (*Node, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	node := &Node{ID: id}
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &node.Labels)
		}); err != nil {
			return err
		}
		node.Properties, err = readProperties(txn, entityNode, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// GetEdge returns the edge with id, including its properties.
func (b *BadgerEngine) GetEdge(id uint64) (*Edge, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var edge *Edge
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		edge, err = readEdge(txn, id)
		if err != nil {
			return err
		}
		edge.Properties, err = readProperties(txn, entityEdge, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

func readEdge(txn *badger.Txn, id uint64) (*Edge, error) {
	item, err := txn.Get(edgeKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	var rec edgeRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, err
	}
	return &Edge{ID: id, Source: rec.Source, Target: rec.Target, Type: rec.Type}, nil
}

func readProperties(txn *badger.Txn, kind entityKind, id uint64) (map[string]any, error) {
	props := make(map[string]any)
	prefix := propertyPrefix(kind, id)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		name, err := tokenName(txn, tokenPropKey, trailingID(item.Key()))
		if err != nil {
			return nil, err
		}
		var value any
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		}); err != nil {
			return nil, err
		}
		props[name] = value
	}
	return props, nil
}

// NodeProperties range-scans the property index for node id.
func (b *BadgerEngine) NodeProperties(id uint64) (map[string]any, error) {
	return b.properties(entityNode, id)
}

// EdgeProperties range-scans the property index for edge id.
func (b *BadgerEngine) EdgeProperties(id uint64) (map[string]any, error) {
	return b.properties(entityEdge, id)
}

func (b *BadgerEngine) properties(kind entityKind, id uint64) (map[string]any, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var props map[string]any
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		props, err = readProperties(txn, kind, id)
		return err
	})
	return props, err
}

// NodesByLabel returns the ids of nodes carrying label, ascending.
// An unknown label yields no ids.
func (b *BadgerEngine) NodesByLabel(label string) ([]uint64, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var ids []uint64
	err := b.db.View(func(txn *badger.Txn) error {
		labelID, ok, err := token(txn, tokenLabel, label, false)
		if err != nil || !ok {
			return err
		}
		prefix := labelIndexPrefix(labelID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, trailingID(it.Item().Key()))
		}
		return nil
	})
	return ids, err
}

// NodeLabels returns the labels of node id by scanning the entity-keyed index.
func (b *BadgerEngine) NodeLabels(id uint64) ([]string, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var labels []string
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := appendID([]byte{prefixNodeLabels}, id)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			name, err := tokenName(txn, tokenLabel, trailingID(it.Item().Key()))
			if err != nil {
				return err
			}
			labels = append(labels, name)
		}
		return nil
	})
	return labels, err
}

// AllNodeIDs returns every node id, ascending.
func (b *BadgerEngine) AllNodeIDs() ([]uint64, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var ids []uint64
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte{prefixNode}
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, trailingID(it.Item().Key()))
		}
		return nil
	})
	return ids, err
}

// EdgesByType returns the edges of relType, ascending by edge id.
// Properties are not loaded.
func (b *BadgerEngine) EdgesByType(relType string) ([]*Edge, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var edges []*Edge
	err := b.db.View(func(txn *badger.Txn) error {
		typeID, ok, err := token(txn, tokenType, relType, false)
		if err != nil || !ok {
			return err
		}
		prefix := typeIndexPrefix(typeID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			edge, err := readEdge(txn, trailingID(it.Item().Key()))
			if errors.Is(err, ErrNotFound) {
				b.log.WithField("type", relType).Debug("type index entry without edge")
				continue
			}
			if err != nil {
				return err
			}
			edges = append(edges, edge)
		}
		return nil
	})
	return edges, err
}

// AllEdges returns every edge, ascending by edge id. Properties are not loaded.
func (b *BadgerEngine) AllEdges() ([]*Edge, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var edges []*Edge
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte{prefixEdge}
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var rec edgeRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			edges = append(edges, &Edge{ID: trailingID(item.Key()), Source: rec.Source, Target: rec.Target, Type: rec.Type})
		}
		return nil
	})
	return edges, err
}

// NodeCount returns the number of stored nodes.
func (b *BadgerEngine) NodeCount() (int64, error) {
	ids, err := b.AllNodeIDs()
	return int64(len(ids)), err
}

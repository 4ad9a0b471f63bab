package kv

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/catalog-server/internal/store"
)

// Entity provides typed CRUD over a key prefix with secondary indexes.
// All methods run inside a caller-supplied transaction so that several
// entities can be read and written atomically.
//
// Key layout:
//
//	<prefix><id>                          -> JSON(T)
//	<prefix>idx:<name>:<value>            -> id       (unique index)
//	<prefix>idx:<name>:<value>:<id>       -> empty    (multi-value index)
//
// Index values are base64url encoded so they never contain the ':' separator.
type Entity[T any] struct {
	prefix  string
	indexes []index[T]
}

type index[T any] struct {
	name   string
	unique bool
	keyGen func(*T) []string
}

// NewEntity creates a new Entity for type T stored under prefix.
func NewEntity[T any](prefix string) *Entity[T] {
	return &Entity[T]{prefix: prefix}
}

// WithUniqueIndex adds an index whose values may map to at most one entity.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, unique: true, keyGen: keyGen})
	return e
}

// WithIndex adds an index whose values may be shared by many entities.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func encodeIndexValue(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexPrefix(name, value string) string {
	return e.prefix + "idx:" + name + ":" + encodeIndexValue(value)
}

func (e *Entity[T]) indexKey(idx index[T], value, id string) []byte {
	if idx.unique {
		return []byte(e.indexPrefix(idx.name, value))
	}
	return []byte(e.indexPrefix(idx.name, value) + ":" + id)
}

func (e *Entity[T]) findIndex(name string) (index[T], bool) {
	for _, idx := range e.indexes {
		if idx.name == name {
			return idx, true
		}
	}
	return index[T]{}, false
}

// create inserts entity. Returns store.ErrAlreadyExists when the ID or a unique index value is taken.
func (e *Entity[T]) create(txn *badger.Txn, id string, entity *T) error {
	_, err := txn.Get(e.key(id))
	if err == nil {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s%s already exists", e.prefix, id))
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing key: %w", err)
	}

	for _, idx := range e.indexes {
		if !idx.unique {
			continue
		}
		for _, value := range idx.keyGen(entity) {
			_, err := txn.Get(e.indexKey(idx, value, id))
			if err == nil {
				return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s %q already exists", idx.name, value))
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}

	return e.write(txn, id, entity)
}

// write stores the entity body and its index keys.
func (e *Entity[T]) write(txn *badger.Txn, id string, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			var val []byte
			if idx.unique {
				val = []byte(id)
			}
			if err := txn.Set(e.indexKey(idx, value, id), val); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

// get returns the entity with the given ID or store.ErrNotFound.
func (e *Entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

// getByUnique resolves a unique index value to its entity.
func (e *Entity[T]) getByUnique(txn *badger.Txn, name, value string) (*T, error) {
	item, err := txn.Get([]byte(e.indexPrefix(name, value)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index key: %w", err)
	}

	var id string
	if err := item.Value(func(val []byte) error {
		id = string(val)
		return nil
	}); err != nil {
		return nil, err
	}
	return e.get(txn, id)
}

// update replaces an existing entity, moving its index keys.
func (e *Entity[T]) update(txn *badger.Txn, id string, entity *T) error {
	old, err := e.get(txn, id)
	if err != nil {
		return err
	}

	for _, idx := range e.indexes {
		oldValues := map[string]bool{}
		for _, value := range idx.keyGen(old) {
			oldValues[value] = true
		}

		if idx.unique {
			for _, value := range idx.keyGen(entity) {
				if oldValues[value] {
					continue
				}
				_, err := txn.Get(e.indexKey(idx, value, id))
				if err == nil {
					return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s %q already exists", idx.name, value))
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("failed to check index key: %w", err)
				}
			}
		}

		for value := range oldValues {
			if err := txn.Delete(e.indexKey(idx, value, id)); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
		}
	}

	return e.write(txn, id, entity)
}

// list calls fn for every entity under the prefix in key order.
func (e *Entity[T]) list(txn *badger.Txn, fn func(*T) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(e.prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	idxPrefix := e.prefix + "idx:"
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if len(item.Key()) >= len(idxPrefix) && string(item.Key()[:len(idxPrefix)]) == idxPrefix {
			continue
		}

		var entity T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		if err := fn(&entity); err != nil {
			return err
		}
	}
	return nil
}

// idsByIndex returns the IDs stored under a multi-value index for value.
func (e *Entity[T]) idsByIndex(txn *badger.Txn, name, value string) ([]string, error) {
	idx, ok := e.findIndex(name)
	if !ok || idx.unique {
		return nil, fmt.Errorf("no multi-value index %q on %s", name, e.prefix)
	}

	prefix := []byte(e.indexPrefix(name, value) + ":")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids, nil
}

// count returns the number of entities under the prefix.
func (e *Entity[T]) count(txn *badger.Txn) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(e.prefix)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	idxPrefix := e.prefix + "idx:"
	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().Key()
		if len(key) >= len(idxPrefix) && string(key[:len(idxPrefix)]) == idxPrefix {
			continue
		}
		n++
	}
	return n
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for any domain type keyed by ID,
// with optional unique secondary indexes.
type Entity[T any] struct {
	store   *Badger
	prefix  string
	indexes []Index[T]
}

// Index defines a unique secondary index on an entity.
type Index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Badger, prefix string) *Entity[T] {
	return &Entity[T]{
		store:   s,
		prefix:  prefix,
		indexes: make([]Index[T], 0),
	}
}

// WithIndex adds a secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

// WithIndexTransform adds a secondary index with lookup transformation.
// The lookupTransform function is applied to search values before index lookup,
// enabling case-insensitive searches, normalization, etc.
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

func (e *Entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or any unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(e.prefix + id))
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		if err := e.checkIndexConflicts(txn, entity, nil); err != nil {
			return err
		}

		if err := txn.Set([]byte(e.prefix+id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.setIndexes(txn, id, entity)
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		return e.read(txn, id, &entity)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByIndex retrieves an entity by secondary index.
// If the index has a lookup transform, it will be applied to the value before lookup.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.indexKey(indexName, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return e.read(txn, string(id), &entity)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update replaces an existing entity and moves its index keys.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var old T
		if err := e.read(txn, id, &old); err != nil {
			return err
		}

		if err := e.checkIndexConflicts(txn, entity, &old); err != nil {
			return err
		}

		for _, idx := range e.indexes {
			for _, k := range idx.keyGen(&old) {
				if err := txn.Delete(e.indexKey(idx.name, k)); err != nil {
					return fmt.Errorf("failed to delete old index key: %w", err)
				}
			}
		}

		if err := txn.Set([]byte(e.prefix+id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.setIndexes(txn, id, entity)
	})
}

// Delete deletes an entity by ID.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var entity T
		err := e.read(txn, id, &entity)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for _, idx := range e.indexes {
			for _, k := range idx.keyGen(&entity) {
				if err := txn.Delete(e.indexKey(idx.name, k)); err != nil {
					return fmt.Errorf("failed to delete index key: %w", err)
				}
			}
		}
		return txn.Delete([]byte(e.prefix + id))
	})
}

func (e *Entity[T]) read(txn *badger.Txn, id string, dest *T) error {
	item, err := txn.Get([]byte(e.prefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key: %w", err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, dest); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		return nil
	})
}

// checkIndexConflicts fails if any index value of entity is held by another
// entity. Values already owned by old (on update) are not conflicts.
func (e *Entity[T]) checkIndexConflicts(txn *badger.Txn, entity, old *T) error {
	for _, idx := range e.indexes {
		owned := make(map[string]bool)
		if old != nil {
			for _, k := range idx.keyGen(old) {
				owned[k] = true
			}
		}

		for _, k := range idx.keyGen(entity) {
			if owned[k] {
				continue
			}
			_, err := txn.Get(e.indexKey(idx.name, k))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, k, ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) setIndexes(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, k := range idx.keyGen(entity) {
			if err := txn.Set(e.indexKey(idx.name, k), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

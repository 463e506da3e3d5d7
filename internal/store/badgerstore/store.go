// Package badgerstore implements the catalog store on an embedded Badger
// key-value database: keyed record collections with secondary indexes,
// batched bulk replacement, and additive schema migration. Badger's
// in-memory mode backs tests; on-disk mode backs production use.
package badgerstore

import (
	"context"
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/errors"
	"github.com/brickworks/brickdex/pkg/logging"
)

// Store is a Badger-backed catalog.Store.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// compile-time interface check
var _ catalog.Store = (*Store)(nil)

// Option configures the store.
type Option func(*config)

type config struct {
	inMemory bool
	logger   zerolog.Logger
}

// InMemory keeps all data in memory; used by tests.
func InMemory() Option {
	return func(c *config) { c.inMemory = true }
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Open opens (creating if needed) the catalog store at path and migrates it
// to the current schema version. Open failures are fatal to the caller and
// map to ErrStoreBlocked.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := &config{logger: *logging.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	var badgerOpts badger.Options
	if cfg.inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(path)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.WrapStore("open", "", err)
	}

	s := &Store{db: db, logger: cfg.logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutMetadata stores a JSON-encoded metadata value under key.
func (s *Store) PutMetadata(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WrapStore("write", "metadata", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(key), data)
	})
	return errors.WrapStore("write", "metadata", err)
}

// Metadata loads the metadata value under key into out, reporting whether
// the key was present.
func (s *Store) Metadata(_ context.Context, key string, out any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, out)
		})
	})
	if err != nil {
		return false, errors.WrapStore("read", "metadata", err)
	}
	return found, nil
}

// DeleteMetadata removes the metadata value under key. Absent keys are not
// an error.
func (s *Store) DeleteMetadata(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(metaKey(key))
	})
	return errors.WrapStore("write", "metadata", err)
}

// Counts returns per-collection record counts.
func (s *Store) Counts(_ context.Context) (catalog.Counts, error) {
	var counts catalog.Counts
	err := s.db.View(func(txn *badger.Txn) error {
		counts.Categories = countPrefix(txn, prefixCategory)
		counts.Colors = countPrefix(txn, prefixColor)
		counts.Parts = countPrefix(txn, prefixPart)
		counts.PartColors = countPrefix(txn, prefixPartColor)
		return nil
	})
	if err != nil {
		return catalog.Counts{}, errors.WrapStore("read", "", err)
	}
	return counts, nil
}

// HasData reports whether both parts and colors are non-empty. Row counts,
// not metadata, are the integrity signal: a partial prior load leaves
// metadata behind but fails this check.
func (s *Store) HasData(_ context.Context) (bool, error) {
	has := false
	err := s.db.View(func(txn *badger.Txn) error {
		has = anyWithPrefix(txn, prefixPart) && anyWithPrefix(txn, prefixColor)
		return nil
	})
	if err != nil {
		return false, errors.WrapStore("read", "", err)
	}
	return has, nil
}

// ClearAll empties every catalog collection and index, leaving metadata
// intact.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, prefix := range [][]byte{prefixCategory, prefixColor, prefixPart, prefixPartColor, prefixIndex} {
		if err := s.deletePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

// deletePrefix removes every key under prefix in bounded batches.
func (s *Store) deletePrefix(ctx context.Context, prefix []byte) error {
	for {
		if ctx.Err() != nil {
			return errors.Cancelled(ctx.Err())
		}

		deleted := 0
		err := s.db.Update(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid() && deleted < 2048; it.Next() {
				key := it.Item().KeyCopy(nil)
				if err := txn.Delete(key); err != nil {
					return err
				}
				deleted++
			}
			return nil
		})
		if err != nil {
			return errors.WrapStore("clear", string(prefix), err)
		}
		if deleted == 0 {
			return nil
		}
	}
}

func countPrefix(txn *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}

func anyWithPrefix(txn *badger.Txn, prefix []byte) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return it.Valid()
}

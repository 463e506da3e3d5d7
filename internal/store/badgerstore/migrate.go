package badgerstore

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/constants"
	"github.com/brickworks/brickdex/pkg/errors"
)

// schemaVersionKey tracks the layout version of this store.
const schemaVersionKey = "schemaVersion"

// migrate brings the store layout up to the current schema version.
// Migrations are strictly additive: new indexes are built from existing
// records and writes are idempotent upserts, so re-running a migration or
// opening a store that already has an index is never an error. Data in
// unaffected collections is left untouched.
func (s *Store) migrate() error {
	version, err := s.schemaVersion()
	if err != nil {
		return err
	}

	switch {
	case version == constants.StoreSchemaVersion:
		return nil
	case version > constants.StoreSchemaVersion:
		return errors.WrapStore("migrate", "",
			fmt.Errorf("store schema version %d is newer than supported %d", version, constants.StoreSchemaVersion))
	}

	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	if err := s.writeSchemaVersion(constants.StoreSchemaVersion); err != nil {
		return err
	}

	s.logger.Info().
		Int("from", version).
		Int("to", constants.StoreSchemaVersion).
		Msg("store schema migrated")
	return nil
}

// migrateV2 adds the color type and name indexes introduced in version 2 by
// scanning the existing colors collection. Version 1 stores predate the
// partColors collection, so there is nothing to rebuild there.
func (s *Store) migrateV2() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixColor
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var color catalog.Color
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &color)
			})
			if err != nil {
				return err
			}
			if color.Type != "" {
				if err := txn.Set(colTypeIndexKey(fold(color.Type), color.ID), nil); err != nil {
					return err
				}
			}
			if color.Name != "" {
				if err := txn.Set(colNameIndexKey(color.Name), u32(color.ID)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return errors.WrapStore("migrate", "colors", err)
}

// schemaVersion reads the stored layout version. A store with no version
// marker and no data is a fresh install at the current version; a store
// with data but no marker is a version 1 layout.
func (s *Store) schemaVersion() (int, error) {
	version := -1
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(schemaVersionKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &version)
		})
	})
	if err != nil {
		return 0, errors.WrapStore("migrate", "", err)
	}

	if version < 0 {
		empty := true
		err := s.db.View(func(txn *badger.Txn) error {
			empty = !anyWithPrefix(txn, prefixCategory) &&
				!anyWithPrefix(txn, prefixColor) &&
				!anyWithPrefix(txn, prefixPart)
			return nil
		})
		if err != nil {
			return 0, errors.WrapStore("migrate", "", err)
		}
		if empty {
			return constants.StoreSchemaVersion, s.writeSchemaVersion(constants.StoreSchemaVersion)
		}
		return 1, nil
	}
	return version, nil
}

func (s *Store) writeSchemaVersion(version int) error {
	data, _ := json.Marshal(version)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(schemaVersionKey), data)
	})
	return errors.WrapStore("migrate", "", err)
}

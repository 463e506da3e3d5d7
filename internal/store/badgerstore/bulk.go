package badgerstore

import (
	"context"
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/constants"
	"github.com/brickworks/brickdex/pkg/errors"
)

// entry is a single key/value pair queued for a batched write. A nil value
// stores an empty payload, which is how index keys are written.
type entry struct {
	key   []byte
	value []byte
}

// ReplaceCategories clears the categories collection and writes the given
// records in batches.
func (s *Store) ReplaceCategories(ctx context.Context, records []catalog.Category, onProgress catalog.ProgressFunc) error {
	err := s.replaceRecords(ctx, [][]byte{prefixCategory}, len(records), onProgress, func(i int) []entry {
		c := records[i]
		if c.ID < 0 {
			s.logger.Warn().Int("id", c.ID).Msg("skipping category with invalid id")
			return nil
		}
		data, err := json.Marshal(c)
		if err != nil {
			s.logger.Warn().Err(err).Int("id", c.ID).Msg("skipping unencodable category")
			return nil
		}
		return []entry{{categoryKey(c.ID), data}}
	})
	return errors.WrapStore("replace", "categories", err)
}

// ReplaceColors clears the colors collection and its indexes, then writes
// the given records in batches. Each color is indexed by parts count (for
// popularity ordering), by folded type, and by exact name.
func (s *Store) ReplaceColors(ctx context.Context, records []catalog.Color, onProgress catalog.ProgressFunc) error {
	clear := [][]byte{prefixColor, prefixColParts, prefixColType, prefixColName}
	err := s.replaceRecords(ctx, clear, len(records), onProgress, func(i int) []entry {
		c := records[i]
		if c.ID < 0 {
			s.logger.Warn().Int("id", c.ID).Msg("skipping color with invalid id")
			return nil
		}
		data, err := json.Marshal(c)
		if err != nil {
			s.logger.Warn().Err(err).Int("id", c.ID).Msg("skipping unencodable color")
			return nil
		}
		entries := []entry{
			{colorKey(c.ID), data},
			{colPartsIndexKey(c.Parts, c.ID), nil},
		}
		if c.Type != "" {
			entries = append(entries, entry{colTypeIndexKey(fold(c.Type), c.ID), nil})
		}
		if c.Name != "" {
			entries = append(entries, entry{colNameIndexKey(c.Name), u32(c.ID)})
		}
		return entries
	})
	return errors.WrapStore("replace", "colors", err)
}

// ReplaceParts clears the parts collection and its indexes, then writes the
// given records in batches. Parts without a BrickLink id cannot be keyed and
// are skipped with a warning rather than failing the whole load.
func (s *Store) ReplaceParts(ctx context.Context, records []catalog.Part, onProgress catalog.ProgressFunc) error {
	clear := [][]byte{prefixPart, prefixPartCat, prefixPartName}
	err := s.replaceRecords(ctx, clear, len(records), onProgress, func(i int) []entry {
		p := records[i]
		if p.BLID == "" {
			s.logger.Warn().Str("name", p.Name).Msg("skipping part without id")
			return nil
		}
		data, err := json.Marshal(p)
		if err != nil {
			s.logger.Warn().Err(err).Str("blId", p.BLID).Msg("skipping unencodable part")
			return nil
		}
		entries := []entry{
			{partKey(p.BLID), data},
			{partCatIndexKey(p.CatID, p.BLID), nil},
		}
		if p.Name != "" {
			entries = append(entries, entry{partNameIndexKey(fold(p.Name), p.BLID), nil})
		}
		return entries
	})
	return errors.WrapStore("replace", "parts", err)
}

// ReplacePartColors clears the part/color availability collection and its
// index, then writes the given records in batches.
func (s *Store) ReplacePartColors(ctx context.Context, records []catalog.PartColor, onProgress catalog.ProgressFunc) error {
	clear := [][]byte{prefixPartColor, prefixPclByColor}
	err := s.replaceRecords(ctx, clear, len(records), onProgress, func(i int) []entry {
		pc := records[i]
		if pc.PartID == "" || pc.ColorID < 0 {
			s.logger.Warn().Str("partId", pc.PartID).Int("colorId", pc.ColorID).
				Msg("skipping part color without a usable key")
			return nil
		}
		data, err := json.Marshal(pc)
		if err != nil {
			s.logger.Warn().Err(err).Str("partId", pc.PartID).Msg("skipping unencodable part color")
			return nil
		}
		return []entry{
			{partColorKey(pc.PartID, pc.ColorID), data},
			{pclColorIndexKey(pc.ColorID, pc.PartID), nil},
		}
	})
	return errors.WrapStore("replace", "partColors", err)
}

// replaceRecords deletes every key under the clear prefixes, then encodes
// records one at a time and commits them in transactions of BulkBatchSize.
// Records whose encode func returns nil are skipped without aborting the
// batch. Progress is reported as whole percentages of records processed.
func (s *Store) replaceRecords(ctx context.Context, clear [][]byte, total int, onProgress catalog.ProgressFunc, encode func(i int) []entry) error {
	for _, prefix := range clear {
		if err := s.deletePrefix(ctx, prefix); err != nil {
			return err
		}
	}

	report := func(percent int) {
		if onProgress != nil {
			onProgress(percent)
		}
	}
	if total == 0 {
		report(100)
		return nil
	}

	batch := make([]entry, 0, constants.BulkBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			for _, e := range batch {
				if err := txn.Set(e.key, e.value); err != nil {
					return err
				}
			}
			return nil
		})
		batch = batch[:0]
		return err
	}

	lastPercent := -1
	batched := 0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Cancelled(err)
		}
		batch = append(batch, encode(i)...)
		batched++
		if batched >= constants.BulkBatchSize {
			if err := flush(); err != nil {
				return err
			}
			batched = 0
		}
		if percent := (i + 1) * 100 / total; percent != lastPercent {
			lastPercent = percent
			report(percent)
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if lastPercent != 100 {
		report(100)
	}
	return nil
}

package badgerstore

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/text/cases"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/constants"
	"github.com/brickworks/brickdex/pkg/errors"
)

// fold case-folds a string for case-insensitive matching. Caser instances
// carry state, so one is created per call rather than shared.
func fold(s string) string { return cases.Fold().String(s) }

// getJSON fetches and unmarshals a single value. It reports false with no
// error when the key is absent.
func getJSON(txn *badger.Txn, key []byte, out any) (bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, out)
	})
	return err == nil, err
}

// SearchParts matches the query case-insensitively against part ids, names,
// and the resolved category name. Queries shorter than the minimum length
// return an empty result without touching the store.
func (s *Store) SearchParts(ctx context.Context, query string, limit int) ([]catalog.PartMatch, error) {
	query = strings.TrimSpace(query)
	if len(query) < constants.MinPartQueryLength {
		return []catalog.PartMatch{}, nil
	}
	if limit <= 0 {
		limit = constants.DefaultPartSearchLimit
	}
	needle := fold(query)

	categories, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]catalog.PartMatch, 0, limit)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixPart
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(matches) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled(err)
			}
			var part catalog.Part
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &part)
			})
			if err != nil {
				return err
			}
			category := categories[part.CatID]
			if !strings.Contains(fold(part.BLID), needle) &&
				!strings.Contains(fold(part.PartID), needle) &&
				!strings.Contains(fold(part.Name), needle) &&
				!strings.Contains(fold(category), needle) {
				continue
			}
			matches = append(matches, partMatch(part, category))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapStore("search", "parts", err)
	}
	return matches, nil
}

// SearchColors matches the query case-insensitively against color names,
// ids, and types. An empty query returns the most popular colors instead.
func (s *Store) SearchColors(ctx context.Context, query string, limit int) ([]catalog.ColorMatch, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = constants.DefaultColorSearchLimit
	}
	if query == "" {
		return s.PopularColors(ctx, limit)
	}
	needle := fold(query)

	matches := make([]catalog.ColorMatch, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixColor
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(matches) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled(err)
			}
			var color catalog.Color
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &color)
			})
			if err != nil {
				return err
			}
			if !strings.Contains(fold(color.Name), needle) &&
				!strings.Contains(strconv.Itoa(color.ID), needle) &&
				!strings.Contains(fold(color.Type), needle) {
				continue
			}
			matches = append(matches, colorMatch(color))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapStore("search", "colors", err)
	}
	return matches, nil
}

// PopularColors returns colors ordered by parts count, descending. The parts
// count index stores counts big-endian, so a reverse iteration walks colors
// from most to least used.
func (s *Store) PopularColors(ctx context.Context, limit int) ([]catalog.ColorMatch, error) {
	if limit <= 0 {
		limit = constants.DefaultColorSearchLimit
	}
	matches := make([]catalog.ColorMatch, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible index key so the reverse iterator
		// starts at the highest parts count.
		seek := append(append([]byte{}, prefixColParts...),
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefixColParts) && len(matches) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled(err)
			}
			key := it.Item().Key()
			id := parseU32(key[len(key)-4:])
			var color catalog.Color
			found, err := getJSON(txn, colorKey(id), &color)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			matches = append(matches, colorMatch(color))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapStore("search", "colors", err)
	}
	return matches, nil
}

// PartByID returns the part with the given BrickLink id, or nil when absent.
func (s *Store) PartByID(_ context.Context, blID string) (*catalog.Part, error) {
	var part catalog.Part
	found, err := s.view(&part, partKey(blID))
	if err != nil {
		return nil, errors.WrapStore("get", "parts", err)
	}
	if !found {
		return nil, nil
	}
	return &part, nil
}

// ColorByID returns the color with the given id, or nil when absent.
func (s *Store) ColorByID(_ context.Context, id int) (*catalog.Color, error) {
	var color catalog.Color
	found, err := s.view(&color, colorKey(id))
	if err != nil {
		return nil, errors.WrapStore("get", "colors", err)
	}
	if !found {
		return nil, nil
	}
	return &color, nil
}

// ColorByName returns the color with the exact given name, or nil when
// absent. Served from the name index.
func (s *Store) ColorByName(ctx context.Context, name string) (*catalog.Color, error) {
	id := -1
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(colNameIndexKey(name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			id = parseU32(v)
			return nil
		})
	})
	if err != nil {
		return nil, errors.WrapStore("get", "colors", err)
	}
	if id < 0 {
		return nil, nil
	}
	return s.ColorByID(ctx, id)
}

// CategoryByID returns the category with the given id, or nil when absent.
func (s *Store) CategoryByID(_ context.Context, id int) (*catalog.Category, error) {
	var category catalog.Category
	found, err := s.view(&category, categoryKey(id))
	if err != nil {
		return nil, errors.WrapStore("get", "categories", err)
	}
	if !found {
		return nil, nil
	}
	return &category, nil
}

// Categories returns all categories in id order.
func (s *Store) Categories(ctx context.Context) ([]catalog.Category, error) {
	categories := []catalog.Category{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixCategory
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled(err)
			}
			var category catalog.Category
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &category)
			})
			if err != nil {
				return err
			}
			categories = append(categories, category)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapStore("list", "categories", err)
	}
	return categories, nil
}

// PartColors returns the color-variant associations for a part, or an empty
// slice when none exist.
func (s *Store) PartColors(ctx context.Context, partID string) ([]catalog.PartColor, error) {
	prefix := join(prefixPartColor, []byte(partID), []byte{keySep})
	partColors := []catalog.PartColor{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled(err)
			}
			var pc catalog.PartColor
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &pc)
			})
			if err != nil {
				return err
			}
			partColors = append(partColors, pc)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapStore("list", "partColors", err)
	}
	return partColors, nil
}

// PartsByCategory returns up to limit parts in the given category, served
// from the catId index.
func (s *Store) PartsByCategory(ctx context.Context, catID, limit int) ([]catalog.Part, error) {
	if limit <= 0 {
		limit = constants.DefaultPartSearchLimit
	}
	prefix := join(prefixPartCat, u32(catID), []byte{keySep})
	parts := make([]catalog.Part, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(parts) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Cancelled(err)
			}
			blID := string(it.Item().Key()[len(prefix):])
			var part catalog.Part
			found, err := getJSON(txn, partKey(blID), &part)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			parts = append(parts, part)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapStore("list", "parts", err)
	}
	return parts, nil
}

// categoryNames loads the id-to-name map used to resolve category labels
// during part search.
func (s *Store) categoryNames(ctx context.Context) (map[int]string, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// view fetches one record into out, reporting whether the key existed.
func (s *Store) view(out any, key []byte) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, key, out)
		return err
	})
	return found, err
}

func partMatch(p catalog.Part, category string) catalog.PartMatch {
	label := p.Name
	if label == "" {
		label = p.BLID
	}
	return catalog.PartMatch{
		Value:    p.BLID,
		Label:    label,
		Category: category,
		Part:     p,
	}
}

func colorMatch(c catalog.Color) catalog.ColorMatch {
	return catalog.ColorMatch{
		Value: strconv.Itoa(c.ID),
		Label: c.Name,
		RGB:   c.RGB,
		Type:  c.Type,
		Color: c,
	}
}

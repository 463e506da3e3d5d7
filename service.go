// Package brickdex loads the BrickLink parts catalog from LCX-Tabular
// archives into a local indexed store and serves lookups from it. The
// Service facade owns the download, decompression, parse, and persistence
// pipeline and reports progress through tagged events.
package brickdex

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/brickworks/brickdex/internal/store/badgerstore"
	"github.com/brickworks/brickdex/internal/transport"
	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/errors"
	"github.com/brickworks/brickdex/pkg/lcx"
	"github.com/brickworks/brickdex/pkg/logging"
)

// State is the lifecycle state of a Service.
type State int

// Service lifecycle states.
const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fetcher downloads a catalog payload. Implementations report progress as a
// percentage in [0, 100] with a short human-readable message.
type Fetcher interface {
	Fetch(ctx context.Context, url string, onProgress func(percent int, message string)) ([]byte, error)
}

// Service manages the local parts catalog: loading it from the network or a
// file, and answering lookups once loaded. Query methods return ErrNotReady
// until a load has succeeded or fresh stored data has been adopted.
type Service interface {
	// Load populates the store from the configured catalog endpoint.
	// Stored data newer than the freshness window is reused without a
	// download. On failure the legacy tab-separated endpoints are tried
	// if configured. Events fire synchronously; the callback may be nil.
	Load(ctx context.Context, onEvent catalog.EventFunc) error

	// LoadFile populates the store from a local LCX archive, bypassing
	// the freshness check and the network.
	LoadFile(ctx context.Context, path string, onEvent catalog.EventFunc) error

	// State returns the current lifecycle state.
	State() State

	// Ready reports whether queries will be served.
	Ready() bool

	// Stats returns store counts and provenance. Unlike the lookup
	// methods it works in any state, opening the store if needed.
	Stats(ctx context.Context) (*catalog.Stats, error)

	SearchParts(ctx context.Context, query string, limit int) ([]catalog.PartMatch, error)
	SearchColors(ctx context.Context, query string, limit int) ([]catalog.ColorMatch, error)
	PopularColors(ctx context.Context, limit int) ([]catalog.ColorMatch, error)
	PartByID(ctx context.Context, blID string) (*catalog.Part, error)
	ColorByID(ctx context.Context, id int) (*catalog.Color, error)
	ColorByName(ctx context.Context, name string) (*catalog.Color, error)
	CategoryByID(ctx context.Context, id int) (*catalog.Category, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	PartColors(ctx context.Context, partID string) ([]catalog.PartColor, error)
	PartsByCategory(ctx context.Context, catID, limit int) ([]catalog.Part, error)

	Close() error
}

// service is the internal implementation of the Service interface.
type service struct {
	cfg     *config
	logger  zerolog.Logger
	parser  *lcx.Parser
	fetcher Fetcher

	// loadMu serializes loads; mu guards state, store, and the
	// categories cache.
	loadMu     sync.Mutex
	mu         sync.RWMutex
	state      State
	store      catalog.Store
	categories []catalog.Category
}

// New creates a Service with the given options. The store is opened lazily
// on first use.
func New(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	logger := *logging.Default()
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	s := &service{
		cfg:    cfg,
		logger: logger,
		parser: lcx.NewParser(),
		store:  cfg.store,
	}

	s.fetcher = cfg.fetcher
	if s.fetcher == nil {
		topts := []transport.Option{transport.WithLogger(logger)}
		if cfg.httpClient != nil {
			topts = append(topts, transport.WithHTTPClient(cfg.httpClient))
		}
		s.fetcher = &httpFetcher{client: transport.New(topts...)}
	}
	return s, nil
}

// httpFetcher adapts the streaming transport client to the Fetcher interface.
type httpFetcher struct {
	client *transport.Client
}

func (f *httpFetcher) Fetch(ctx context.Context, url string, onProgress func(percent int, message string)) ([]byte, error) {
	return f.client.Fetch(ctx, url, onProgress)
}

func (s *service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *service) Ready() bool {
	return s.State() == StateReady
}

func (s *service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// ensureStore opens the configured store if it is not open yet.
func (s *service) ensureStore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return nil
	}
	opts := []badgerstore.Option{badgerstore.WithLogger(s.logger)}
	if s.cfg.storePath == "" {
		opts = append(opts, badgerstore.InMemory())
	}
	store, err := badgerstore.Open(s.cfg.storePath, opts...)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

// Load runs the catalog load pipeline. Once the service is Ready, Load is a
// no-op for the rest of the session; the freshness window decides whether a
// new session re-downloads. On failure the service stays Ready if the store
// already holds data; otherwise it becomes Failed.
func (s *service) Load(ctx context.Context, onEvent catalog.EventFunc) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.Ready() {
		return nil
	}

	s.setState(StateInitializing)
	err := s.load(ctx, onEvent)
	return s.finishLoad(ctx, onEvent, err)
}

// LoadFile ingests a local LCX archive. The freshness check is skipped: an
// explicit file load always replaces the store contents.
func (s *service) LoadFile(ctx context.Context, filePath string, onEvent catalog.EventFunc) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.setState(StateInitializing)
	err := s.loadFile(ctx, filePath, onEvent)
	return s.finishLoad(ctx, onEvent, err)
}

// finishLoad settles the terminal state of a load and emits the error event
// on failure. A failed load over a populated store keeps serving the
// existing data.
func (s *service) finishLoad(ctx context.Context, onEvent catalog.EventFunc, err error) error {
	if err == nil {
		s.invalidateCategories()
		s.setState(StateReady)
		return nil
	}

	onEvent.Emit(catalog.Event{Kind: catalog.EventError, Step: catalog.StepError, Message: err.Error(), Err: err})
	if has, herr := s.storeHasData(ctx); herr == nil && has {
		s.logger.Warn().Err(err).Msg("catalog load failed, serving existing data")
		s.setState(StateReady)
	} else {
		s.setState(StateFailed)
	}
	return err
}

func (s *service) storeHasData(ctx context.Context) (bool, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return false, nil
	}
	return store.HasData(ctx)
}

func (s *service) load(ctx context.Context, onEvent catalog.EventFunc) error {
	emit := eventEmitter(onEvent)

	emit(catalog.StepInitStore, 0, "opening local store")
	if err := s.ensureStore(); err != nil {
		return err
	}
	emit(catalog.StepInitStore, 100, "store ready")

	fresh, stats, err := s.freshStats(ctx)
	if err != nil {
		return err
	}
	if fresh {
		s.logger.Info().Msg("stored catalog is fresh, skipping download")
		emit(catalog.StepFinalize, 100, "using stored catalog")
		onEvent.Emit(catalog.Event{Kind: catalog.EventDone, Step: catalog.StepFinalize, Percent: 100, Stats: stats})
		return nil
	}

	if s.cfg.catalogURL == "" {
		return fmt.Errorf("no catalog url configured")
	}

	data, err := s.fetcher.Fetch(ctx, s.cfg.catalogURL, func(percent int, message string) {
		emit(catalog.StepDownload, percent, message)
	})
	if err != nil {
		if errors.IsCancelled(err) {
			return err
		}
		return s.loadLegacy(ctx, onEvent, err)
	}

	payload, name, err := s.decompress(ctx, data, path.Base(s.cfg.catalogURL), emit)
	if err != nil {
		if errors.IsCancelled(err) {
			return err
		}
		return s.loadLegacy(ctx, onEvent, err)
	}

	if err := s.ingest(ctx, payload, name, onEvent); err != nil {
		if errors.IsParse(err) || errors.IsValidation(err) {
			return s.loadLegacy(ctx, onEvent, err)
		}
		return err
	}
	return nil
}

func (s *service) loadFile(ctx context.Context, filePath string, onEvent catalog.EventFunc) error {
	emit := eventEmitter(onEvent)

	emit(catalog.StepInitStore, 0, "opening local store")
	if err := s.ensureStore(); err != nil {
		return err
	}
	emit(catalog.StepInitStore, 100, "store ready")

	if !lcx.IsArchiveName(filePath) {
		s.logger.Warn().Str("path", filePath).Msg("file does not follow the catalog archive naming convention")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading catalog file: %w", err)
	}
	emit(catalog.StepDownload, 100, "read local file")

	payload, name, err := s.decompress(ctx, data, filepath.Base(filePath), emit)
	if err != nil {
		return err
	}
	return s.ingest(ctx, payload, name, onEvent)
}

// decompress gunzips archive payloads, reporting progress. Plain payloads
// pass through untouched.
func (s *service) decompress(ctx context.Context, data []byte, name string, emit func(catalog.Step, int, string)) ([]byte, string, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".gz") {
		emit(catalog.StepDecompress, 100, "payload not compressed")
		return data, name, nil
	}
	text, err := transport.Decompress(ctx, data, func(percent int, message string) {
		emit(catalog.StepDecompress, percent, message)
	})
	if err != nil {
		return nil, "", err
	}
	return []byte(text), strings.TrimSuffix(name, ".gz"), nil
}

// ingest parses a plain LCX payload and replaces the store contents with it.
// The store is only touched after the payload parses cleanly.
func (s *service) ingest(ctx context.Context, payload []byte, name string, onEvent catalog.EventFunc) error {
	emit := eventEmitter(onEvent)

	emit(catalog.StepParse, 0, "parsing catalog")
	ds, err := s.parser.Parse(payload, name)
	if err != nil {
		return err
	}
	emit(catalog.StepParse, 100, "catalog parsed")

	store := s.store
	if err := store.ClearAll(ctx); err != nil {
		return err
	}
	if err := store.ReplaceCategories(ctx, ds.Categories, stepProgress(emit, catalog.StepSaveCategories)); err != nil {
		return err
	}
	if err := store.ReplaceColors(ctx, ds.Colors, stepProgress(emit, catalog.StepSaveColors)); err != nil {
		return err
	}
	if err := store.ReplaceParts(ctx, ds.Parts, stepProgress(emit, catalog.StepSaveParts)); err != nil {
		return err
	}
	if ds.HasPartColors {
		if err := store.ReplacePartColors(ctx, ds.PartColors, stepProgress(emit, catalog.StepSavePartColors)); err != nil {
			return err
		}
	} else {
		emit(catalog.StepSavePartColors, 100, "no part colors in catalog")
	}

	emit(catalog.StepFinalize, 0, "recording provenance")
	lastUpdate := catalog.LastUpdate{
		Timestamp: s.cfg.now().UnixMilli(),
		Source:    "lcx",
		Version:   ds.Provenance.Version,
	}
	if err := store.PutMetadata(ctx, catalog.MetaProvenance, ds.Provenance); err != nil {
		return err
	}
	if err := store.PutMetadata(ctx, catalog.MetaLastUpdate, lastUpdate); err != nil {
		return err
	}

	stats := ds.Stats()
	stats.LastUpdate = &lastUpdate
	emit(catalog.StepFinalize, 100, "catalog stored")
	onEvent.Emit(catalog.Event{Kind: catalog.EventDone, Step: catalog.StepFinalize, Percent: 100, Stats: &stats})

	s.logger.Info().
		Str("source", ds.Provenance.Source).
		Str("version", ds.Provenance.Version).
		Int("parts", stats.Parts).
		Int("colors", stats.Colors).
		Msg("catalog loaded")
	return nil
}

// loadLegacy populates the store from the tab-separated fallback endpoints
// after a catalog archive load failed with cause.
func (s *service) loadLegacy(ctx context.Context, onEvent catalog.EventFunc, cause error) error {
	if s.cfg.legacyPartsURL == "" || s.cfg.legacyColorsURL == "" {
		return cause
	}
	s.logger.Warn().Err(cause).Msg("catalog load failed, trying legacy endpoints")
	emit := eventEmitter(onEvent)

	partsData, err := s.fetcher.Fetch(ctx, s.cfg.legacyPartsURL, func(percent int, message string) {
		emit(catalog.StepDownload, percent/2, message)
	})
	if err != nil {
		return fmt.Errorf("legacy fallback after %w: %w", cause, err)
	}
	colorsData, err := s.fetcher.Fetch(ctx, s.cfg.legacyColorsURL, func(percent int, message string) {
		emit(catalog.StepDownload, 50+percent/2, message)
	})
	if err != nil {
		return fmt.Errorf("legacy fallback after %w: %w", cause, err)
	}
	emit(catalog.StepDecompress, 100, "payload not compressed")

	emit(catalog.StepParse, 0, "parsing legacy tables")
	categories, parts := catalog.ParseLegacyParts(string(partsData))
	colors := catalog.ParseLegacyColors(string(colorsData))
	emit(catalog.StepParse, 100, "legacy tables parsed")

	store := s.store
	if err := store.ClearAll(ctx); err != nil {
		return err
	}
	if err := store.ReplaceCategories(ctx, categories, stepProgress(emit, catalog.StepSaveCategories)); err != nil {
		return err
	}
	if err := store.ReplaceColors(ctx, colors, stepProgress(emit, catalog.StepSaveColors)); err != nil {
		return err
	}
	if err := store.ReplaceParts(ctx, parts, stepProgress(emit, catalog.StepSaveParts)); err != nil {
		return err
	}
	emit(catalog.StepSavePartColors, 100, "legacy source has no part colors")

	emit(catalog.StepFinalize, 0, "recording provenance")
	lastUpdate := catalog.LastUpdate{
		Timestamp: s.cfg.now().UnixMilli(),
		Source:    "legacy",
	}
	if err := store.DeleteMetadata(ctx, catalog.MetaProvenance); err != nil {
		return err
	}
	if err := store.PutMetadata(ctx, catalog.MetaLastUpdate, lastUpdate); err != nil {
		return err
	}

	stats := catalog.Stats{
		Counts: catalog.Counts{
			Categories: len(categories),
			Colors:     len(colors),
			Parts:      len(parts),
		},
		LastUpdate: &lastUpdate,
		Source:     "legacy",
	}
	emit(catalog.StepFinalize, 100, "legacy catalog stored")
	onEvent.Emit(catalog.Event{Kind: catalog.EventDone, Step: catalog.StepFinalize, Percent: 100, Stats: &stats})

	s.logger.Info().
		Int("parts", stats.Parts).
		Int("colors", stats.Colors).
		Msg("legacy catalog loaded")
	return nil
}

// freshStats decides whether the stored catalog can be reused: a last-update
// marker within the freshness window plus a populated store. A marker
// without data is stale state from an interrupted load and is removed so the
// next load starts clean.
func (s *service) freshStats(ctx context.Context) (bool, *catalog.Stats, error) {
	store := s.store
	var lastUpdate catalog.LastUpdate
	found, err := store.Metadata(ctx, catalog.MetaLastUpdate, &lastUpdate)
	if err != nil {
		return false, nil, err
	}
	if !found {
		return false, nil, nil
	}

	hasData, err := store.HasData(ctx)
	if err != nil {
		return false, nil, err
	}
	if !hasData {
		s.logger.Warn().Msg("update marker without data, clearing stale metadata")
		if err := store.DeleteMetadata(ctx, catalog.MetaLastUpdate); err != nil {
			return false, nil, err
		}
		if err := store.DeleteMetadata(ctx, catalog.MetaProvenance); err != nil {
			return false, nil, err
		}
		return false, nil, nil
	}

	age := s.cfg.now().UnixMilli() - lastUpdate.Timestamp
	if age < 0 || age > s.cfg.freshness.Milliseconds() {
		return false, nil, nil
	}

	stats, err := s.readStats(ctx)
	if err != nil {
		return false, nil, err
	}
	return true, stats, nil
}

// Stats reads store counts and provenance, opening the store if needed.
func (s *service) Stats(ctx context.Context) (*catalog.Stats, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	return s.readStats(ctx)
}

func (s *service) readStats(ctx context.Context) (*catalog.Stats, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	counts, err := store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	stats := &catalog.Stats{Counts: counts}

	var lastUpdate catalog.LastUpdate
	if found, err := store.Metadata(ctx, catalog.MetaLastUpdate, &lastUpdate); err != nil {
		return nil, err
	} else if found {
		stats.LastUpdate = &lastUpdate
		stats.Source = lastUpdate.Source
		stats.Version = lastUpdate.Version
	}

	var provenance catalog.Provenance
	if found, err := store.Metadata(ctx, catalog.MetaProvenance, &provenance); err != nil {
		return nil, err
	} else if found {
		stats.Provenance = &provenance
	}
	return stats, nil
}

// ready returns the store when the service is Ready, or ErrNotReady.
func (s *service) ready() (catalog.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady || s.store == nil {
		return nil, errors.ErrNotReady
	}
	return s.store, nil
}

func (s *service) SearchParts(ctx context.Context, query string, limit int) ([]catalog.PartMatch, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.SearchParts(ctx, query, limit)
}

func (s *service) SearchColors(ctx context.Context, query string, limit int) ([]catalog.ColorMatch, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.SearchColors(ctx, query, limit)
}

func (s *service) PopularColors(ctx context.Context, limit int) ([]catalog.ColorMatch, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.PopularColors(ctx, limit)
}

func (s *service) PartByID(ctx context.Context, blID string) (*catalog.Part, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.PartByID(ctx, blID)
}

func (s *service) ColorByID(ctx context.Context, id int) (*catalog.Color, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.ColorByID(ctx, id)
}

func (s *service) ColorByName(ctx context.Context, name string) (*catalog.Color, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.ColorByName(ctx, name)
}

func (s *service) CategoryByID(ctx context.Context, id int) (*catalog.Category, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.CategoryByID(ctx, id)
}

// Categories serves from a cache filled on first call and invalidated by a
// successful load. Category sets are small and read often during part
// search rendering.
func (s *service) Categories(ctx context.Context) ([]catalog.Category, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached := s.categories
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	categories, err := store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return categories, nil
}

func (s *service) invalidateCategories() {
	s.mu.Lock()
	s.categories = nil
	s.mu.Unlock()
}

func (s *service) PartColors(ctx context.Context, partID string) ([]catalog.PartColor, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.PartColors(ctx, partID)
}

func (s *service) PartsByCategory(ctx context.Context, catID, limit int) ([]catalog.Part, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	return store.PartsByCategory(ctx, catID, limit)
}

// Close releases the store. The service returns to Uninitialized.
func (s *service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUninitialized
	s.categories = nil
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// eventEmitter returns a progress emitter bound to the callback.
func eventEmitter(onEvent catalog.EventFunc) func(step catalog.Step, percent int, message string) {
	return func(step catalog.Step, percent int, message string) {
		onEvent.Emit(catalog.Event{Kind: catalog.EventProgress, Step: step, Percent: percent, Message: message})
	}
}

// stepProgress adapts store bulk-write progress to events for one step.
func stepProgress(emit func(catalog.Step, int, string), step catalog.Step) catalog.ProgressFunc {
	return func(percent int) {
		emit(step, percent, "")
	}
}

// ABOUTME: In-memory authoritative copy of the remote records and interest zones
// ABOUTME: Publishes snapshots to subscribers and persists edits through the write queue
package sync

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
)

// State is the store lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Snapshot is a subscriber's private copy of the store contents.
type Snapshot struct {
	Records []models.Record
	Zones   []models.InterestZone
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{Records: models.CloneRecords(s.Records), Zones: models.CloneZones(s.Zones)}
}

// Config holds store settings.
type Config struct {
	ResyncInterval time.Duration
	Queue          QueueConfig
	Logger         *log.Logger
	Now            func() time.Time
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		ResyncInterval: 5 * time.Minute,
		Queue:          DefaultQueueConfig(),
		Logger:         log.New(os.Stderr, "[sync] ", log.LstdFlags),
		Now:            time.Now,
	}
}

// ServiceStatus is a diagnostic view of the store.
type ServiceStatus struct {
	Initialized     bool        `json:"initialized"`
	Loading         bool        `json:"loading"`
	State           string      `json:"state"`
	RecordCount     int         `json:"record_count"`
	ZoneCount       int         `json:"zone_count"`
	SubscriberCount int         `json:"subscriber_count"`
	LastSync        time.Time   `json:"last_sync"`
	LastError       string      `json:"last_error,omitempty"`
	Queue           QueueStatus `json:"queue"`
}

type subscriber struct {
	id uuid.UUID
	fn func(Snapshot)
}

// Store owns the in-memory record and zone sets. Construct one per process
// and pass it to every consumer.
//
// Subscriber callbacks run synchronously while notifications are serialized;
// they must not call mutating store methods from inside the callback.
type Store struct {
	remote remote.Store
	cfg    Config
	queue  *WriteQueue

	mu          gosync.Mutex
	ready       bool
	loading     bool
	gen         uint64
	zoneVersion uint64
	records     []models.Record
	zones       []models.InterestZone
	subs        []subscriber
	lastSync    time.Time
	lastErr     string

	// editSeq counts local record edits; edited maps an id to its latest edit.
	editSeq uint64
	edited  map[string]uint64

	// notifyMu is taken before mu is released so notifications are delivered
	// in state order.
	notifyMu gosync.Mutex

	bgMu     gosync.Mutex
	bgCancel context.CancelFunc
	bgWG     gosync.WaitGroup
}

// New creates a store backed by rs.
func New(rs remote.Store, cfg Config) *Store {
	def := DefaultConfig()
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	if cfg.Queue.Logger == nil {
		cfg.Queue.Logger = cfg.Logger
	}
	if cfg.Queue.Now == nil {
		cfg.Queue.Now = cfg.Now
	}

	s := &Store{remote: rs, cfg: cfg}
	s.queue = NewWriteQueue(RecordWriterFunc(s.persistRecord), cfg.Queue)
	return s
}

// persistRecord writes one record to its sheet row.
func (s *Store) persistRecord(ctx context.Context, rec models.Record) error {
	if rec.SheetRow < remote.FirstDataRow {
		return fmt.Errorf("record %s has no sheet row", rec.ID)
	}
	row, err := EncodeRecordRow(rec)
	if err != nil {
		return err
	}
	return s.remote.WriteRange(ctx, remote.RowRange(remote.TableRecords, rec.SheetRow), [][]string{row})
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.ready:
		return StateReady
	case s.loading:
		return StateLoading
	default:
		return StateUninitialized
	}
}

// Subscribe registers fn for snapshot notifications. When the store is ready,
// fn receives the current contents before Subscribe returns. The returned
// function unregisters fn and is safe to call more than once.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	id := uuid.New()
	s.mu.Lock()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	if s.ready {
		base := s.snapshotLocked()
		s.notifyMu.Lock()
		s.mu.Unlock()
		s.deliver(fn, base)
		s.notifyMu.Unlock()
	} else {
		s.mu.Unlock()
	}

	var once gosync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Records: models.CloneRecords(s.records), Zones: models.CloneZones(s.zones)}
}

// unlockAndNotify must be called with mu held. It captures the current
// contents, releases mu and notifies every subscriber with its own copy.
func (s *Store) unlockAndNotify() {
	base := s.snapshotLocked()
	subs := append([]subscriber(nil), s.subs...)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, sub := range subs {
		s.deliver(sub.fn, base.clone())
	}
}

func (s *Store) deliver(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.Logger.Printf("subscriber panicked: %v", r)
		}
	}()
	fn(snap)
}

// LoadInitial reads both tables and makes the store ready. Calls made while a
// load is in flight return immediately; calls on a ready store re-notify
// subscribers with the current contents.
func (s *Store) LoadInitial(ctx context.Context) error {
	s.mu.Lock()
	if s.ready {
		s.unlockAndNotify()
		return nil
	}
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	gen := s.gen
	s.mu.Unlock()

	records, zones, err := s.fetch(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStoreReset
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}

	s.records = records
	s.zones = zones
	s.ready = true
	s.lastSync = s.cfg.Now()
	s.lastErr = ""
	s.cfg.Logger.Printf("loaded %d records and %d interest zones", len(records), len(zones))
	s.startBackground()
	s.unlockAndNotify()
	return nil
}

func (s *Store) fetch(ctx context.Context) ([]models.Record, []models.InterestZone, error) {
	recordRows, err := s.remote.ReadRange(ctx, remote.TableRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read records: %w", err)
	}
	zoneRows, err := s.remote.ReadRange(ctx, remote.TableInterestZones)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read interest zones: %w", err)
	}

	records := s.decodeRecords(recordRows)
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %d rows read", ErrNoValidData, len(recordRows))
	}
	return records, s.decodeZones(zoneRows), nil
}

// decodeRecords drops invalid rows and collapses duplicate ids, keeping the
// last occurrence's value at the first occurrence's position.
func (s *Store) decodeRecords(rows [][]string) []models.Record {
	records := make([]models.Record, 0, len(rows))
	index := make(map[string]int, len(rows))

	for i, row := range rows {
		if blank(row) {
			continue
		}
		sheetRow := remote.FirstDataRow + i
		rec, err := DecodeRecordRow(row, sheetRow)
		if err != nil {
			s.cfg.Logger.Printf("skipping record row: %v", err)
			continue
		}
		if !models.IsValidRecord(&rec) {
			s.cfg.Logger.Printf("skipping record row %d: missing id or name", sheetRow)
			continue
		}
		if at, ok := index[rec.ID]; ok {
			s.cfg.Logger.Printf("duplicate record id %s at row %d, keeping latest", rec.ID, sheetRow)
			records[at] = rec
			continue
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}

	return records
}

func (s *Store) decodeZones(rows [][]string) []models.InterestZone {
	zones := make([]models.InterestZone, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		z, err := DecodeZoneRow(row)
		if err != nil {
			s.cfg.Logger.Printf("skipping zone row %d: %v", remote.FirstDataRow+i, err)
			continue
		}
		if !models.IsValidInterestZoneStrict(&z) {
			s.cfg.Logger.Printf("skipping zone row %d: invalid zone %q", remote.FirstDataRow+i, z.ID)
			continue
		}
		zones = append(zones, z)
	}
	return zones
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// GetRecords returns a copy of every record, or an empty slice before the
// first load.
func (s *Store) GetRecords() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		s.cfg.Logger.Printf("GetRecords called before the store was loaded")
		return []models.Record{}
	}
	return models.CloneRecords(s.records)
}

// GetInterestZones returns a copy of every interest zone.
func (s *Store) GetInterestZones() []models.InterestZone {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		s.cfg.Logger.Printf("GetInterestZones called before the store was loaded")
		return []models.InterestZone{}
	}
	return models.CloneZones(s.zones)
}

// GetRecordByID returns a copy of the record with the given id.
func (s *Store) GetRecordByID(id string) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.records[i].Clone(), true
	}
	return models.Record{}, false
}

func (s *Store) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdateRecord replaces a record locally, notifies subscribers and schedules
// the write. Local state is never rolled back; the returned PendingWrite
// reports the persistence outcome.
func (s *Store) UpdateRecord(ctx context.Context, rec models.Record) (*PendingWrite, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if !models.IsValidRecord(&rec) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidRecord)
	}
	i := s.indexLocked(rec.ID)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}

	rec = rec.Clone()
	rec.ModifiedAt = s.cfg.Now()
	rec.SheetRow = s.records[i].SheetRow
	s.records[i] = rec
	s.editSeq++
	if s.edited == nil {
		s.edited = make(map[string]uint64)
	}
	s.edited[rec.ID] = s.editSeq
	s.unlockAndNotify()

	return s.queue.Schedule(ctx, rec)
}

// UpdateInterestZones replaces the whole zone set and persists it. The
// previous set is restored if persistence fails.
func (s *Store) UpdateInterestZones(ctx context.Context, zones []models.InterestZone) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	for i := range zones {
		if !models.IsValidInterestZone(&zones[i]) {
			s.mu.Unlock()
			return fmt.Errorf("%w: zone %d (%q)", ErrInvalidInterestZone, i, zones[i].ID)
		}
	}

	previous := s.zones
	next := models.CloneZones(zones)
	s.zones = next
	s.zoneVersion++
	version, gen := s.zoneVersion, s.gen
	s.unlockAndNotify()

	rows := make([][]string, len(next))
	for i, z := range next {
		rows[i] = EncodeZoneRow(z)
	}

	if err := s.remote.WriteRange(ctx, remote.TableInterestZones, rows); err != nil {
		s.mu.Lock()
		if s.zoneVersion == version && s.gen == gen {
			s.zones = previous
			s.zoneVersion++
			s.lastErr = err.Error()
			s.unlockAndNotify()
		} else {
			s.mu.Unlock()
		}
		return fmt.Errorf("failed to persist interest zones: %w", err)
	}

	return nil
}

// Flush persists every pending write now.
func (s *Store) Flush(ctx context.Context) DrainResult {
	return s.queue.ForceDrain(ctx)
}

// DrainInterval returns the period between queue drains.
func (s *Store) DrainInterval() time.Duration {
	return s.cfg.Queue.Interval
}

// FullResync drains pending writes, re-reads both tables and replaces the
// local sets. On any read failure local state is left untouched. Records whose
// writes are still queued, or that were edited after the resync began, keep
// their local version.
func (s *Store) FullResync(ctx context.Context) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	gen := s.gen
	since := s.editSeq
	s.mu.Unlock()

	res := s.queue.ForceDrain(ctx)
	if res.Failed > 0 || res.Dropped > 0 {
		s.cfg.Logger.Printf("resync drain: %d failed, %d dropped of %d writes", res.Failed, res.Dropped, res.Attempted)
	}

	records, zones, err := s.fetch(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStoreReset
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("resync aborted: %w", err)
	}

	index := make(map[string]int, len(records))
	for i := range records {
		index[records[i].ID] = i
	}
	keep := func(local models.Record) {
		if i, ok := index[local.ID]; ok {
			local.SheetRow = records[i].SheetRow
			records[i] = local
		}
	}
	for _, local := range s.records {
		if s.edited[local.ID] > since {
			keep(local.Clone())
		}
	}
	for _, pending := range s.queue.PendingRecords() {
		keep(pending)
	}

	s.records = records
	s.zones = zones
	s.lastSync = s.cfg.Now()
	s.lastErr = ""
	s.unlockAndNotify()
	return nil
}

// Reset stops background work and returns the store to its initial state.
// Pending writes are discarded.
func (s *Store) Reset() {
	s.stopBackground()
	s.queue.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.editSeq = 0
	s.edited = nil
	s.ready = false
	s.loading = false
	s.records = nil
	s.zones = nil
	s.subs = nil
	s.lastSync = time.Time{}
	s.lastErr = ""
}

// Close stops background work. Pending writes stay queued.
func (s *Store) Close() {
	s.stopBackground()
}

// ServiceStatus returns a diagnostic view of the store and its queue.
func (s *Store) ServiceStatus() ServiceStatus {
	s.mu.Lock()
	st := ServiceStatus{
		Initialized:     s.ready,
		Loading:         s.loading,
		RecordCount:     len(s.records),
		ZoneCount:       len(s.zones),
		SubscriberCount: len(s.subs),
		LastSync:        s.lastSync,
		LastError:       s.lastErr,
	}
	s.mu.Unlock()

	st.State = s.State().String()
	st.Queue = s.queue.Status()
	return st
}

// startBackground launches the periodic drain and resync loops.
func (s *Store) startBackground() {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	if s.bgCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel
	s.queue.Start(ctx)

	if s.cfg.ResyncInterval <= 0 {
		return
	}
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(s.cfg.ResyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.FullResync(ctx); err != nil {
					s.cfg.Logger.Printf("background resync failed: %v", err)
				}
			}
		}
	}()
}

func (s *Store) stopBackground() {
	s.bgMu.Lock()
	cancel := s.bgCancel
	s.bgCancel = nil
	s.bgMu.Unlock()

	if cancel != nil {
		cancel()
		s.bgWG.Wait()
	}
	s.queue.Stop()
}

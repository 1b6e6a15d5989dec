// ABOUTME: In-memory remote.Store used by sync tests
// ABOUTME: Records an ordered event log and supports injected failures
package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
)

type fakeRemote struct {
	mu       gosync.Mutex
	tables   map[string][][]string
	events   *eventLog
	readErr  map[string]error
	writeErr func(rangeID string) error
	onWrite  func(rangeID string)
	writes   map[string]int
}

// eventLog is shared between the fake and subscribers to assert ordering.
type eventLog struct {
	mu     gosync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tables:  map[string][][]string{},
		events:  &eventLog{},
		readErr: map[string]error{},
		writes:  map[string]int{},
	}
}

func (f *fakeRemote) ReadRange(ctx context.Context, rangeID string) ([][]string, error) {
	f.events.add("read:" + rangeID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readErr[rangeID]; err != nil {
		return nil, err
	}
	rows := make([][]string, len(f.tables[rangeID]))
	for i, r := range f.tables[rangeID] {
		rows[i] = append([]string(nil), r...)
	}
	return rows, nil
}

func (f *fakeRemote) WriteRange(ctx context.Context, rangeID string, rows [][]string) error {
	f.events.add("write:" + rangeID)
	if f.onWrite != nil {
		f.onWrite(rangeID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes[rangeID]++
	if f.writeErr != nil {
		if err := f.writeErr(rangeID); err != nil {
			return err
		}
	}

	r, err := remote.ParseRange(rangeID)
	if err != nil {
		return err
	}
	if r.Whole() {
		f.tables[r.Table] = rows
		return nil
	}
	table := f.tables[r.Table]
	idx := r.Row - remote.FirstDataRow
	for len(table) <= idx {
		table = append(table, make([]string, remote.Width(r.Table)))
	}
	table[idx] = rows[0]
	f.tables[r.Table] = table
	return nil
}

func (f *fakeRemote) writeCount(rangeID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[rangeID]
}

func (f *fakeRemote) setRecords(recs ...models.Record) {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		row, err := EncodeRecordRow(r)
		if err != nil {
			panic(fmt.Sprintf("encode fixture: %v", err))
		}
		rows[i] = row
	}
	f.mu.Lock()
	f.tables[remote.TableRecords] = rows
	f.mu.Unlock()
}

func (f *fakeRemote) setZones(zones ...models.InterestZone) {
	rows := make([][]string, len(zones))
	for i, z := range zones {
		rows[i] = EncodeZoneRow(z)
	}
	f.mu.Lock()
	f.tables[remote.TableInterestZones] = rows
	f.mu.Unlock()
}

func (f *fakeRemote) row(table string, sheetRow int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.tables[table]
	idx := sheetRow - remote.FirstDataRow
	if idx < 0 || idx >= len(rows) {
		return nil
	}
	return append([]string(nil), rows[idx]...)
}

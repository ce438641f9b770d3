// Package archive keeps decoded measurements in a local pebble database so
// history survives the scale's card being cleared.
//
// Entries are keyed by KSUIDs minted from the measurement time, so a
// key-order scan returns them oldest first. A second key per entry, derived
// from the field content, makes imports idempotent.
package archive

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/reader"
)

var (
	entryPrefix   = []byte("m/")
	contentPrefix = []byte("c/")

	// KSUIDs cannot encode earlier times.
	ksuidEpoch = time.Unix(1400000000, 0)
)

// Entry is one archived measurement.
type Entry struct {
	ID         ksuid.KSUID       `json:"-"`
	Source     string            `json:"source"`
	Line       int               `json:"line"`
	Fields     map[string]string `json:"fields"`
	ImportedAt time.Time         `json:"imported_at"`
}

// Row converts the entry back into a reader row.
func (e Entry) Row() reader.Row {
	return reader.Row{
		Source: e.Source,
		Line:   e.Line,
		Record: decoder.NewRecord(e.Fields),
	}
}

// Store is an open archive.
type Store struct {
	db   *pebble.DB
	path string
	now  func() time.Time
}

// Open opens or creates the archive at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.IOWrap(err, errors.ErrArchiveOpenFailed, "failed to open measurement archive").
			WithContext(errors.ContextPath, path)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the directory the archive lives in.
func (s *Store) Path() string {
	return s.path
}

// Close flushes and closes the archive.
func (s *Store) Close() error {
	return s.db.Close()
}

// ContentKey identifies a measurement by its fields alone. The same
// measurement found in two exports, under any file name or line, has the
// same key.
func ContentKey(rec decoder.Record) []byte {
	h := sha256.New()
	for _, code := range rec.Codes() {
		h.Write([]byte(code))
		h.Write([]byte{0})
		h.Write([]byte(rec.Value(code)))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}

func contentKey(rec decoder.Record) []byte {
	return append(append([]byte(nil), contentPrefix...), ContentKey(rec)...)
}

func entryKey(id ksuid.KSUID) []byte {
	return append(append([]byte(nil), entryPrefix...), id.Bytes()...)
}

func (s *Store) has(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if stderrors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

// Import adds rows not already archived and returns how many were added.
// Rows without a usable measurement time are keyed by the import time.
func (s *Store) Import(rows []reader.Row) (int, error) {
	batch := s.db.NewBatch()
	defer batch.Close()

	now := s.now().UTC()
	seen := make(map[string]bool)
	added := 0
	for _, row := range rows {
		ck := contentKey(row.Record)
		if seen[string(ck)] {
			continue
		}
		seen[string(ck)] = true

		exists, err := s.has(ck)
		if err != nil {
			return 0, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read archive")
		}
		if exists {
			continue
		}

		at, ok := analysis.TakenAt(row.Record)
		if !ok || at.Before(ksuidEpoch) {
			at = now
		}
		id, err := ksuid.NewRandomWithTime(at)
		if err != nil {
			return 0, errors.IOWrap(err, errors.ErrInternalError, "failed to mint archive ID")
		}
		data, err := json.Marshal(Entry{
			Source:     row.Source,
			Line:       row.Line,
			Fields:     row.Record.Fields(),
			ImportedAt: now,
		})
		if err != nil {
			return 0, errors.IOWrap(err, errors.ErrInternalError, "failed to encode archive entry")
		}

		if err := batch.Set(entryKey(id), data, nil); err != nil {
			return 0, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to stage archive entry")
		}
		if err := batch.Set(ck, id.Bytes(), nil); err != nil {
			return 0, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to stage archive entry")
		}
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write archive").
			WithContext(errors.ContextPath, s.path)
	}
	return added, nil
}

// Entries returns every entry, oldest measurement first.
func (s *Store) Entries() ([]Entry, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: entryPrefix,
		UpperBound: []byte("m0"), // '0' follows '/'
	})
	if err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read archive")
	}
	defer iter.Close()

	var out []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeEntry(iter.Key(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read archive")
	}
	return out, nil
}

func decodeEntry(key, value []byte) (Entry, error) {
	id, err := ksuid.FromBytes(bytes.TrimPrefix(key, entryPrefix))
	if err != nil {
		return Entry{}, errors.IOWrap(err, errors.ErrArchiveCorrupt, "invalid archive key")
	}
	var e Entry
	if err := json.Unmarshal(value, &e); err != nil {
		return Entry{}, errors.IOWrap(err, errors.ErrArchiveCorrupt, "invalid archive entry").
			WithContext("id", id.String())
	}
	e.ID = id
	return e, nil
}

// Rows returns every archived measurement as reader rows, oldest first.
func (s *Store) Rows() ([]reader.Row, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	rows := make([]reader.Row, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	return rows, nil
}

// Get returns the entry with the given KSUID string.
func (s *Store) Get(id string) (Entry, error) {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return Entry{}, errors.Validationf(errors.ErrValidationInvalidValue, "%q is not an archive ID", id)
	}
	key := entryKey(kid)
	value, closer, err := s.db.Get(key)
	if stderrors.Is(err, pebble.ErrNotFound) {
		return Entry{}, errors.AttachSuggestions(errors.New(errors.ErrArchiveNotFound, errors.CategoryIO, "no archive entry "+id))
	}
	if err != nil {
		return Entry{}, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read archive")
	}
	defer closer.Close()
	return decodeEntry(key, value)
}

// Delete removes an entry and its content key.
func (s *Store) Delete(id string) error {
	e, err := s.Get(id)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	batch.Delete(entryKey(e.ID), nil)
	batch.Delete(contentKey(e.Row().Record), nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write archive")
	}
	return nil
}

// Merge appends archived measurements missing from res, keeping res's own
// rows first. It returns how many rows were added.
func (s *Store) Merge(res *reader.LoadResult) (int, error) {
	archived, err := s.Rows()
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool, len(res.Measurements))
	for _, row := range res.Measurements {
		present[string(ContentKey(row.Record))] = true
	}
	added := 0
	for _, row := range archived {
		if present[string(ContentKey(row.Record))] {
			continue
		}
		res.Measurements = append(res.Measurements, row)
		added++
	}
	return added, nil
}

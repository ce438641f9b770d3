package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/reader"
	"github.com/r3d91ll/tanita/pkg/sample"
)

// sampleRows decodes count generated measurements. The same seed keeps
// earlier rows identical as count grows.
func sampleRows(t *testing.T, count int) []reader.Row {
	t.Helper()
	data, _ := sample.Generate(sample.Options{Count: count, Seed: 11})
	f := reader.ParseReader(sample.DataFile, reader.KindMeasurement, bytes.NewReader(data), reader.Options{})
	if len(f.Rows) != count {
		t.Fatalf("expected %d sample rows, got %d", count, len(f.Rows))
	}
	return f.Rows
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// -----------------------------------------------------------------------------
// Import Tests
// -----------------------------------------------------------------------------

func TestImport_Idempotent(t *testing.T) {
	s := openStore(t)

	n, err := s.Import(sampleRows(t, 3))
	if err != nil || n != 3 {
		t.Fatalf("first Import() = %d, %v; expected 3", n, err)
	}
	n, err = s.Import(sampleRows(t, 3))
	if err != nil || n != 0 {
		t.Errorf("repeat Import() = %d, %v; expected 0", n, err)
	}
	n, err = s.Import(sampleRows(t, 5))
	if err != nil || n != 2 {
		t.Errorf("grown Import() = %d, %v; expected 2", n, err)
	}
}

func TestImport_DuplicatesInOneCall(t *testing.T) {
	s := openStore(t)
	rows := sampleRows(t, 2)
	moved := rows[0]
	moved.Source, moved.Line = "DATA2.CSV", 9

	n, err := s.Import(append(rows, moved))
	if err != nil || n != 2 {
		t.Errorf("Import() = %d, %v; expected 2 (same fields under another file)", n, err)
	}
}

func TestImport_UndatedRowUsesImportTime(t *testing.T) {
	s := openStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	row := reader.Row{Source: "DATA1.CSV", Line: 1, Record: decoder.NewRecord(map[string]string{"Wk": "80.2"})}
	if _, err := s.Import([]reader.Row{row}); err != nil {
		t.Fatal(err)
	}
	entries, err := s.Entries()
	if err != nil || len(entries) != 1 {
		t.Fatalf("Entries() = %d, %v", len(entries), err)
	}
	if !entries[0].ID.Time().Equal(fixed) {
		t.Errorf("expected ID time %v, got %v", fixed, entries[0].ID.Time())
	}
	if !entries[0].ImportedAt.Equal(fixed) {
		t.Errorf("expected import time %v, got %v", fixed, entries[0].ImportedAt)
	}
}

// -----------------------------------------------------------------------------
// Read Tests
// -----------------------------------------------------------------------------

func TestEntries_ChronologicalAndPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rows := sampleRows(t, 4)
	// Import newest first; key order must still be oldest first.
	reversed := []reader.Row{rows[3], rows[2], rows[1], rows[0]}
	if _, err := s.Import(reversed); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Rows()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows after reopen, got %d", len(got))
	}
	for i, row := range got {
		if row.Line != i+1 {
			t.Errorf("position %d: expected line %d, got %d", i, i+1, row.Line)
		}
		if row.Record.Value("Wk") != rows[i].Record.Value("Wk") {
			t.Errorf("position %d: weight %q != %q", i, row.Record.Value("Wk"), rows[i].Record.Value("Wk"))
		}
	}
}

func TestGetAndDelete(t *testing.T) {
	s := openStore(t)
	if _, err := s.Import(sampleRows(t, 3)); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.Entries()
	id := entries[0].ID.String()

	e, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if e.Source != sample.DataFile || e.Line != 1 {
		t.Errorf("unexpected entry: %+v", e)
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(id); !errors.IsCode(err, errors.ErrArchiveNotFound) {
		t.Errorf("expected %s after delete, got %v", errors.ErrArchiveNotFound, err)
	}

	// The content key went with the entry, so the row can come back.
	n, err := s.Import(sampleRows(t, 3))
	if err != nil || n != 1 {
		t.Errorf("re-Import() = %d, %v; expected 1", n, err)
	}
}

func TestGet_Errors(t *testing.T) {
	s := openStore(t)

	if _, err := s.Get("not-a-ksuid"); !errors.IsCode(err, errors.ErrValidationInvalidValue) {
		t.Errorf("expected invalid value, got %v", err)
	}
	if _, err := s.Get(ksuid.New().String()); !errors.IsCode(err, errors.ErrArchiveNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := s.Delete(ksuid.New().String()); !errors.IsCode(err, errors.ErrArchiveNotFound) {
		t.Errorf("expected Delete of unknown ID to fail, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	s := openStore(t)
	if _, err := s.Import(sampleRows(t, 5)); err != nil {
		t.Fatal(err)
	}

	res := &reader.LoadResult{Measurements: sampleRows(t, 2)}
	added, err := s.Merge(res)
	if err != nil {
		t.Fatal(err)
	}
	if added != 3 {
		t.Errorf("expected 3 archived rows merged, got %d", added)
	}
	if len(res.Measurements) != 5 {
		t.Errorf("expected 5 measurements after merge, got %d", len(res.Measurements))
	}
	if res.Measurements[0].Raw == nil {
		t.Error("expected freshly read rows to stay first")
	}
}

func TestOpen_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.IsCode(err, errors.ErrArchiveOpenFailed) {
		t.Errorf("expected %s, got %v", errors.ErrArchiveOpenFailed, err)
	}
}

func TestContentKey_IgnoresPosition(t *testing.T) {
	a := decoder.NewRecord(map[string]string{"Wk": "80.2", "FW": "20.1"})
	b := decoder.NewRecord(map[string]string{"FW": "20.1", "Wk": "80.2"})
	c := decoder.NewRecord(map[string]string{"Wk": "80.2", "FW": "20.2"})
	if !bytes.Equal(ContentKey(a), ContentKey(b)) {
		t.Error("expected equal keys for equal fields")
	}
	if bytes.Equal(ContentKey(a), ContentKey(c)) {
		t.Error("expected different keys for different values")
	}
}

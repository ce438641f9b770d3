package sample

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/r3d91ll/tanita/pkg/analysis"
	"github.com/r3d91ll/tanita/pkg/reader"
)

func TestGenerate_Deterministic(t *testing.T) {
	d1, p1 := Generate(Options{Seed: 7})
	d2, p2 := Generate(Options{Seed: 7})
	if !bytes.Equal(d1, d2) || !bytes.Equal(p1, p2) {
		t.Error("expected identical output for the same seed")
	}
	d3, _ := Generate(Options{Seed: 8})
	if bytes.Equal(d1, d3) {
		t.Error("expected a different seed to change the data")
	}
}

func TestGenerate_Shape(t *testing.T) {
	data, profile := Generate(Options{Count: 3})
	lines := strings.Split(strings.TrimSpace(string(data)), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "0,16,~0,1,") {
		t.Errorf("expected leading metadata cells, got %q", lines[0][:12])
	}
	if !strings.Contains(lines[0], `MO,"BC-601"`) || !strings.Contains(lines[0], `DT,"16/01/2024"`) {
		t.Errorf("expected quoted text values, got %q", lines[0])
	}
	if !strings.Contains(string(profile), "GE,1") {
		t.Errorf("expected male profile, got %q", profile)
	}
}

func TestGenerate_DecodesBack(t *testing.T) {
	data, _ := Generate(Options{Count: 4, Female: true})
	f := reader.ParseReader(DataFile, reader.KindMeasurement, bytes.NewReader(data), reader.Options{})
	if len(f.Issues) != 0 {
		t.Fatalf("unexpected issues %+v", f.Issues)
	}
	if len(f.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(f.Rows))
	}
	rec := f.Rows[0].Record
	if rec.Value("MO") != "BC-601" || rec.Value("GE") != "2" {
		t.Errorf("unexpected record %v", rec.Fields())
	}
	if len(analysis.Radars(rec)) != 2 {
		t.Error("expected both segment radars to be drawable")
	}
	if len(analysis.Gauges(rec)) != 5 {
		t.Error("expected every gauge metric to be present")
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sample")
	paths, err := WriteFiles(dir, Options{Count: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != DataFile || filepath.Base(paths[1]) != ProfileFile {
		t.Fatalf("unexpected paths %v", paths)
	}

	srcs, warnings := reader.Scan(reader.Sources{WorkDir: dir})
	if len(warnings) != 0 || len(srcs) != 2 {
		t.Fatalf("expected both files to be found, got %v %v", srcs, warnings)
	}
	res := reader.Load(context.Background(), srcs, reader.Options{})
	if len(res.Measurements) != 2 || len(res.Profiles) != 1 {
		t.Errorf("expected 2 measurements and 1 profile, got %d and %d", len(res.Measurements), len(res.Profiles))
	}
}

package reader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/r3d91ll/tanita/pkg/decoder"
	"github.com/r3d91ll/tanita/pkg/errors"
)

const dataLine = `0,16,~0,1,~1,1,~2,3,~3,4,MO,"BC-601",DT,"16/01/2024",Ti,"07:30:00",Bt,0,GE,1,AG,40,Hm,180.0,AL,2,Wk,80.2,MI,24.8,FW,20.1,Fr,16.0,Fl,16.5,FR,18.2,FL,18.0,FT,22.4,mW,60.5,mr,3.4,ml,3.3,mR,10.1,mL,10.0,mT,33.7,bw,3.2,IF,8,rA,38,rD,2450,ww,56.1,CS,1F`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// -----------------------------------------------------------------------------
// Classification and Scanning Tests
// -----------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"DATA1.CSV":               KindMeasurement,
		"/card/GRAPHV1/data2.csv": KindMeasurement,
		"PROF1.CSV":               KindProfile,
		"notes.csv":               KindUnknown,
	}
	for path, want := range tests {
		if got := Classify(path); got != want {
			t.Errorf("Classify(%q): expected %v, got %v", path, want, got)
		}
	}
}

func TestScan_Directories(t *testing.T) {
	data := t.TempDir()
	system := t.TempDir()
	writeFile(t, data, "DATA2.CSV", nil)
	writeFile(t, data, "DATA1.csv", nil)
	writeFile(t, data, "PROF1.CSV", nil) // wrong directory, not a DATA file
	writeFile(t, system, "PROF1.CSV", nil)

	srcs, warnings := Scan(Sources{DataDir: data, SystemDir: system})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(srcs) != 3 {
		t.Fatalf("expected 3 sources, got %+v", srcs)
	}
	if filepath.Base(srcs[0].Path) != "DATA1.csv" || srcs[0].Kind != KindMeasurement {
		t.Errorf("expected DATA1.csv first, got %+v", srcs[0])
	}
	if srcs[2].Kind != KindProfile {
		t.Errorf("expected profile last, got %+v", srcs[2])
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	srcs, warnings := Scan(Sources{DataDir: filepath.Join(t.TempDir(), "nope")})
	if len(srcs) != 0 {
		t.Errorf("expected no sources, got %v", srcs)
	}
	if len(warnings) != 1 || !errors.IsCode(warnings[0], errors.ErrInputDirNotFound) {
		t.Errorf("expected INPUT_DIR_NOT_FOUND warning, got %v", warnings)
	}
}

func TestScan_WorkDirFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "DATA1.CSV", nil)
	writeFile(t, dir, "PROF1.CSV", nil)
	writeFile(t, dir, "OTHER.CSV", nil)

	srcs, _ := Scan(Sources{WorkDir: dir})
	if len(srcs) != 2 {
		t.Errorf("expected DATA and PROF files only, got %+v", srcs)
	}
}

func TestScan_ExplicitFiles(t *testing.T) {
	srcs, warnings := Scan(Sources{Files: []string{"a/DATA1.CSV", "a/DATA1.CSV", "readme.csv"}})
	if len(srcs) != 1 {
		t.Errorf("expected duplicates collapsed, got %+v", srcs)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning for the unrecognised file, got %v", warnings)
	}
}

// -----------------------------------------------------------------------------
// Encoding Tests
// -----------------------------------------------------------------------------

func TestDecodeText_UTF8(t *testing.T) {
	txt, err := DecodeText([]byte("\xEF\xBB\xBFWk,70.5"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if txt.Content != "Wk,70.5" {
		t.Errorf("expected BOM stripped, got %q", txt.Content)
	}
	if txt.Charset != "utf-8" {
		t.Errorf("expected utf-8, got %q", txt.Charset)
	}
}

func TestDecodeText_Windows1252(t *testing.T) {
	raw := []byte("MO,\"Balan\xE7a\"")
	txt, err := DecodeText(raw, charmap.Windows1252)
	if err != nil {
		t.Fatal(err)
	}
	if txt.Content != `MO,"Balança"` {
		t.Errorf("expected transcoded text, got %q", txt.Content)
	}
	if txt.Charset != "windows-1252" {
		t.Errorf("expected windows-1252, got %q", txt.Charset)
	}
}

func TestDecodeText_UTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte("Wk,70.5"))
	if err != nil {
		t.Fatal(err)
	}
	txt, err := DecodeText(raw, nil)
	if err != nil {
		t.Fatal(err)
	}
	if txt.Content != "Wk,70.5" || txt.Charset != "utf-16" {
		t.Errorf("expected utf-16 decode, got %+v", txt)
	}
}

func TestLookupEncoding(t *testing.T) {
	if _, err := LookupEncoding("latin1"); err != nil {
		t.Errorf("expected latin1 label to resolve, got %v", err)
	}
	if enc, err := LookupEncoding(""); err != nil || enc != charmap.Windows1252 {
		t.Errorf("expected Windows-1252 default, got %v %v", enc, err)
	}
	if _, err := LookupEncoding("klingon"); !errors.IsCode(err, errors.ErrInputBadEncoding) {
		t.Errorf("expected INPUT_BAD_ENCODING, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// Parsing Tests
// -----------------------------------------------------------------------------

func TestParseFile_Measurement(t *testing.T) {
	dir := t.TempDir()
	content := dataLine + "\n" + "\n" + "x\n" + strings.Replace(dataLine, "80.2", "79.6", 1) + "\n"
	path := writeFile(t, dir, "DATA1.CSV", []byte(content))

	f := ParseFile(path, KindMeasurement, Options{})
	if f.Err != nil {
		t.Fatalf("unexpected error: %v", f.Err)
	}
	if len(f.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(f.Rows))
	}
	row := f.Rows[0]
	if row.Source != "DATA1.CSV" || row.Line != 1 {
		t.Errorf("expected DATA1.CSV line 1, got %s line %d", row.Source, row.Line)
	}
	if row.Record.Value("Wk") != "80.2" || row.Record.Value("MO") != "BC-601" {
		t.Errorf("unexpected record %v", row.Record.Fields())
	}
	if row.Record.Has("0") {
		t.Error("expected leading metadata to be skipped")
	}
	if f.Rows[1].Record.Value("Wk") != "79.6" || f.Rows[1].Line != 4 {
		t.Errorf("unexpected second row %d %v", f.Rows[1].Line, f.Rows[1].Record.Fields())
	}
	if len(f.Issues) != 1 || f.Issues[0].Reason != "fewer than two cells" {
		t.Errorf("expected the single-cell line to be reported, got %+v", f.Issues)
	}
}

func TestParseFile_Missing(t *testing.T) {
	f := ParseFile(filepath.Join(t.TempDir(), "DATA9.CSV"), KindMeasurement, Options{})
	if !errors.IsCode(f.Err, errors.ErrInputUnreadable) {
		t.Errorf("expected INPUT_UNREADABLE, got %v", f.Err)
	}
}

func TestParseReader_ParityMatcher(t *testing.T) {
	opts := Options{Decoder: decoder.New(decoder.ParityMatcher{})}
	f := ParseReader("DATA1.CSV", KindMeasurement, strings.NewReader("0,16,Wk,70\n"), opts)
	if len(f.Rows) != 1 || f.Rows[0].Record.Value("0") != "16" {
		t.Errorf("expected parity decoding to keep 0=16, got %+v", f.Rows)
	}
}

func TestParseReader_NoCodes(t *testing.T) {
	f := ParseReader("DATA1.CSV", KindMeasurement, strings.NewReader("1,2,3,4\n"), Options{})
	if len(f.Rows) != 0 {
		t.Errorf("expected no rows, got %+v", f.Rows)
	}
	if len(f.Issues) != 1 || f.Issues[0].Reason != "no field codes" {
		t.Errorf("expected no field codes issue, got %+v", f.Issues)
	}
}

// -----------------------------------------------------------------------------
// Load Tests
// -----------------------------------------------------------------------------

func TestLoad_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "DATA1.CSV", []byte(dataLine+"\n"))
	prof := writeFile(t, dir, "PROF1.CSV", []byte("GE,1,AG,40,Hm,180\n"))
	missing := filepath.Join(dir, "DATA2.CSV")

	var seen int
	res := Load(context.Background(), []Source{
		{Path: missing, Kind: KindMeasurement},
		{Path: good, Kind: KindMeasurement},
		{Path: prof, Kind: KindProfile},
	}, Options{Workers: 3, OnFile: func(File) { seen++ }})

	if seen != 3 {
		t.Errorf("expected OnFile for every file, got %d", seen)
	}
	if len(res.Files) != 3 || res.Files[0].Path != missing {
		t.Fatalf("expected input order to be kept, got %+v", res.Files)
	}
	if len(res.Measurements) != 1 || len(res.Profiles) != 1 {
		t.Errorf("expected 1 measurement and 1 profile, got %d and %d", len(res.Measurements), len(res.Profiles))
	}
	if len(res.Failed()) != 1 || len(res.Warnings) != 1 {
		t.Errorf("expected the missing file to be reported, got %v", res.Warnings)
	}
	if err := res.Err(); err != nil {
		t.Errorf("expected no error with a measurement present, got %v", err)
	}
	if !strings.Contains(res.Summary(), "decoded 1 measurements") {
		t.Errorf("unexpected summary %q", res.Summary())
	}
}

func TestLoad_NoMeasurements(t *testing.T) {
	res := Load(context.Background(), nil, Options{})
	err := res.Err()
	if !errors.IsCode(err, errors.ErrNoMeasurements) {
		t.Fatalf("expected NO_MEASUREMENTS, got %v", err)
	}
}

func TestLoad_ProfilesOnly(t *testing.T) {
	dir := t.TempDir()
	prof := writeFile(t, dir, "PROF1.CSV", []byte("GE,1,AG,40\n"))
	empty := writeFile(t, dir, "DATA1.CSV", []byte(""))

	res := Load(context.Background(), []Source{{Path: prof, Kind: KindProfile}, {Path: empty, Kind: KindMeasurement}}, Options{})
	if !errors.IsCode(res.Err(), errors.ErrNoMeasurements) {
		t.Fatalf("expected NO_MEASUREMENTS, got %v", res.Err())
	}
	if got := res.EmptyFiles(); len(got) != 1 || got[0].Path != empty {
		t.Errorf("expected the empty DATA file to be listed, got %+v", got)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Load(ctx, []Source{{Path: "DATA1.CSV", Kind: KindMeasurement}}, Options{})
	if len(res.Files) != 1 {
		t.Fatalf("expected the file to be listed, got %d", len(res.Files))
	}
	if res.Files[0].Err == nil {
		t.Error("expected unscheduled file to carry the context error")
	}
}

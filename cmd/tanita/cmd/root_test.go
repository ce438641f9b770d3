package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3d91ll/tanita/pkg/config"
	"github.com/r3d91ll/tanita/pkg/errors"
	"github.com/r3d91ll/tanita/pkg/reader"
	"github.com/r3d91ll/tanita/pkg/sample"
	"github.com/r3d91ll/tanita/pkg/shell"
)

// execute runs the CLI with args and returns stdout, stderr and the exit code.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	code := run(context.Background(), root, args, &stderr)
	return stdout.String(), stderr.String(), code
}

// sampleDir writes the default sample files and returns their directory.
func sampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := sample.WriteFiles(dir, sample.Options{Count: 4, Seed: 7})
	require.NoError(t, err)
	return dir
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitNoMeasurements, ExitCode(errors.NoMeasurements(2, "profile")))
	assert.Equal(t, ExitError, ExitCode(errors.ConfigNotFound("x.yaml")))
	assert.Equal(t, ExitError, ExitCode(assert.AnError))
}

func TestVersionCommand(t *testing.T) {
	out, _, code := execute(t, "version")
	assert.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(out, "tanita "+Version), "got %q", out)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := execute(t, "frobnicate")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestCodesCommand(t *testing.T) {
	t.Run("full listing", func(t *testing.T) {
		out, _, code := execute(t, "codes")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "Primary vitals")
		assert.Contains(t, out, "Regional muscle")
		assert.Contains(t, out, "Wk  Body mass")
		assert.Less(t, strings.Index(out, "Primary vitals"), strings.Index(out, "Regional fat"))
	})

	t.Run("query", func(t *testing.T) {
		out, _, code := execute(t, "codes", "visceral")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "IF")
		assert.NotContains(t, out, "Body mass")
	})

	t.Run("no match", func(t *testing.T) {
		_, stderr, code := execute(t, "codes", "zzzz")
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, errors.ErrCommandInvalidArg)
	})
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tanita.yaml")

	t.Run("init writes once", func(t *testing.T) {
		out, _, code := execute(t, "config", "init", path)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "Config initialized at "+path)
		assert.FileExists(t, path)

		out, _, code = execute(t, "config", "init", path)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "already exists")
	})

	t.Run("init to stdout", func(t *testing.T) {
		out, _, code := execute(t, "config", "init", "--stdout")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "input:")
		assert.Contains(t, out, "matcher: shape")
	})

	t.Run("show uses the file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("report:\n  title: Clinic\n"), 0644))
		out, _, code := execute(t, "--config", path, "config", "show")
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "title: Clinic")
	})

	t.Run("missing explicit config", func(t *testing.T) {
		_, stderr, code := execute(t, "--config", filepath.Join(dir, "nope.yaml"), "config", "show")
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, errors.ErrConfigNotFound)
	})
}

func TestSampleCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	out, _, code := execute(t, "sample", "--dir", dir, "--count", "3", "--seed", "9")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, filepath.Join(dir, sample.DataFile))
	assert.FileExists(t, filepath.Join(dir, sample.ProfileFile))

	data, err := os.ReadFile(filepath.Join(dir, sample.DataFile))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\r\n"))
}

func TestDecodeCommand(t *testing.T) {
	dir := sampleDir(t)
	dataFile := filepath.Join(dir, sample.DataFile)

	t.Run("text", func(t *testing.T) {
		out, stderr, code := execute(t, "decode", dataFile)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "DATA1.CSV line 1")
		assert.Contains(t, out, "Body mass")
		assert.Less(t, strings.Index(out, "Body mass"), strings.Index(out, "Trunk fat"))
		assert.Contains(t, stderr, "decoded 4 measurements")
	})

	t.Run("json", func(t *testing.T) {
		out, _, code := execute(t, "decode", "--json", dataFile)
		require.Equal(t, ExitOK, code)

		lines := 0
		sc := bufio.NewScanner(strings.NewReader(out))
		for sc.Scan() {
			var msg struct {
				Source string            `json:"source"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(sc.Bytes(), &msg))
			assert.Equal(t, "DATA1.CSV", msg.Source)
			assert.NotEmpty(t, msg.Fields["Wk"])
			lines++
		}
		assert.Equal(t, 4, lines)
	})

	t.Run("no measurements", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "DATA9.CSV")
		require.NoError(t, os.WriteFile(empty, []byte("x\n"), 0644))
		out, stderr, code := execute(t, "decode", empty)
		assert.Equal(t, ExitNoMeasurements, code)
		assert.Empty(t, out)
		assert.Contains(t, stderr, errors.ErrNoMeasurements)
	})

	t.Run("bad matcher", func(t *testing.T) {
		_, stderr, code := execute(t, "decode", "--matcher", "regex", dataFile)
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, errors.ErrDecodeUnknownMatcher)
	})
}

func TestReportCommand(t *testing.T) {
	dir := sampleDir(t)
	pdf := filepath.Join(dir, "out", "report.pdf")
	csvPath := filepath.Join(dir, "out.csv")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	out, stderr, code := execute(t, "report",
		"--data-dir", dir, "--system-dir", dir,
		"-o", pdf, "--csv", csvPath, "--xlsx", xlsxPath,
		"--validate", "--force", "--title", "Test report")
	require.Equal(t, ExitOK, code, "stderr: %s", stderr)

	assert.Contains(t, out, "Processed 2 files, decoded 4 measurements")
	assert.Contains(t, out, "Validated "+pdf)
	assert.Contains(t, stderr, "Report written to "+pdf)
	assert.FileExists(t, pdf)
	assert.FileExists(t, xlsxPath)

	table, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(table), "source,line,"), "got %q", string(table))
	assert.Equal(t, 5, strings.Count(string(table), "\n"))
}

func TestWriteTables_DeclinedTargetSkipsOnlyThatTarget(t *testing.T) {
	dir := sampleDir(t)
	res := reader.Load(context.Background(),
		[]reader.Source{{Path: filepath.Join(dir, sample.DataFile), Kind: reader.KindMeasurement}},
		reader.Options{})
	require.NoError(t, res.Err())

	csvPath := filepath.Join(dir, "old.csv")
	xlsxPath := filepath.Join(dir, "new.xlsx")
	require.NoError(t, os.WriteFile(csvPath, []byte("keep"), 0644))

	var out, prompts bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	a := &app{cfg: config.Default(), logger: slog.Default()}
	declines := shell.NewInteractivePrompterWithIO(strings.NewReader("n\n"), &prompts)

	require.NoError(t, a.writeTables(cmd, res, tableTargets{csv: csvPath, xlsx: xlsxPath}, declines))

	assert.Contains(t, prompts.String(), csvPath+" already exists")
	assert.Contains(t, out.String(), "Skipped "+csvPath)
	assert.Contains(t, out.String(), "Workbook written to "+xlsxPath)
	assert.FileExists(t, xlsxPath)
	kept, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(kept))
}

func TestReportCommand_NoMeasurements(t *testing.T) {
	dir := sampleDir(t)
	pdf := filepath.Join(dir, "report.pdf")

	out, stderr, code := execute(t, "report", "--files", filepath.Join(dir, sample.ProfileFile), "-o", pdf)
	assert.Equal(t, ExitNoMeasurements, code)
	assert.Contains(t, out, "decoded 0 measurements and 1 profiles")
	assert.Contains(t, stderr, errors.ErrNoMeasurements)
	assert.NoFileExists(t, pdf)
}

func TestReportCommand_EmptyDirectory(t *testing.T) {
	_, stderr, code := execute(t, "report", "--data-dir", t.TempDir())
	assert.Equal(t, ExitNoMeasurements, code)
	assert.Contains(t, stderr, "no DATA or PROF files found")
}

func TestExportCommand(t *testing.T) {
	dir := sampleDir(t)

	t.Run("tsv", func(t *testing.T) {
		path := filepath.Join(dir, "table.tsv")
		out, _, code := execute(t, "export", "-o", path, "--data-dir", dir)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "4 rows written to "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "source\tline\t"))
	})

	t.Run("profiles", func(t *testing.T) {
		path := filepath.Join(dir, "profiles.csv")
		out, _, code := execute(t, "export", "-o", path, "--profiles", "--system-dir", dir)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "1 rows written")
	})

	t.Run("pdf rejected", func(t *testing.T) {
		_, stderr, code := execute(t, "export", "-o", filepath.Join(dir, "x.pdf"), "--data-dir", dir)
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, errors.ErrExportInvalidFormat)
	})

	t.Run("output required", func(t *testing.T) {
		_, _, code := execute(t, "export", "--data-dir", dir)
		assert.Equal(t, ExitError, code)
	})
}

func TestPublishCommand_NoBroker(t *testing.T) {
	dir := sampleDir(t)
	t.Setenv("RABBITMQ_ADDR", "")

	_, stderr, code := execute(t, "publish", "--data-dir", dir)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, errors.ErrPublishConnectFailed)
}

func TestServeCommand_BadAddress(t *testing.T) {
	dir := sampleDir(t)
	_, stderr, code := execute(t, "serve", "--data-dir", dir, "--addr", "127.0.0.1:-1")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, errors.ErrServeListenFailed)
}

func TestServeCommand_BadMatcher(t *testing.T) {
	dir := sampleDir(t)
	_, stderr, code := execute(t, "serve", "--data-dir", dir, "--addr", "127.0.0.1:0", "--matcher", "regex")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, errors.ErrDecodeUnknownMatcher)
}

func TestArchiveCommands(t *testing.T) {
	dir := sampleDir(t)
	db := filepath.Join(t.TempDir(), "archive")

	out, stderr, code := execute(t, "archive", "import", "--db", db, "--data-dir", dir)
	require.Equal(t, ExitOK, code, "stderr: %s", stderr)
	assert.Contains(t, out, "Archived 4 new measurements (0 already present)")

	out, _, code = execute(t, "archive", "import", "--db", db, "--data-dir", dir)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Archived 0 new measurements (4 already present)")

	out, _, code = execute(t, "archive", "list", "--db", db)
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "4 archived measurements")
	assert.Contains(t, out, "DATA1.CSV:1")
	id := strings.Fields(out)[0]

	t.Run("merge into export", func(t *testing.T) {
		other := t.TempDir()
		_, err := sample.WriteFiles(other, sample.Options{Count: 2, Seed: 99})
		require.NoError(t, err)

		path := filepath.Join(other, "merged.csv")
		out, stderr, code := execute(t, "export", "-o", path,
			"--files", filepath.Join(other, sample.DataFile), "--archive", db)
		require.Equal(t, ExitOK, code, "stderr: %s", stderr)
		assert.Contains(t, out, "6 rows written")
	})

	t.Run("show", func(t *testing.T) {
		out, _, code := execute(t, "archive", "show", "--db", db, id)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "DATA1.CSV line 1")
		assert.Contains(t, out, "Body mass")

		_, stderr, code := execute(t, "archive", "show", "--db", db, "nope")
		assert.Equal(t, ExitError, code)
		assert.Contains(t, stderr, errors.ErrValidationInvalidValue)
	})

	t.Run("delete", func(t *testing.T) {
		out, _, code := execute(t, "archive", "delete", "--db", db, "--force", id)
		require.Equal(t, ExitOK, code)
		assert.Contains(t, out, "Deleted "+id)

		out, _, _ = execute(t, "archive", "list", "--db", db)
		assert.Contains(t, out, "3 archived measurements")
	})
}

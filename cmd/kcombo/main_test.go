package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/kcombo/blobstore"
	"github.com/hupe1980/kcombo/dataset"
	"github.com/hupe1980/kcombo/output"
	"github.com/hupe1980/kcombo/testutil"
)

func writeInput(t *testing.T, name string) string {
	t.Helper()
	ds, err := dataset.New(testutil.SevenPoints())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	cw, err := output.NewCompressedWriter(f, output.CompressionFromName(name))
	require.NoError(t, err)
	require.NoError(t, dataset.Encode(cw, ds))
	require.NoError(t, cw.Close())
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"kcombo"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Stdout(t *testing.T) {
	input := writeInput(t, "points.bin")

	code, stdout, stderr := runCLI(t, "-k", "2", "-p", "3", "-n", "1", "-q", "--log-level", "error", input)
	require.Equal(t, exitOK, code, stderr)

	assert.Equal(t, `initialization centroids,distortion,centroids
"[(1, 1), (2, 2)]",19,"[(1, 1), (4, 5)]"
"[(1, 1), (3, 4)]",19,"[(1, 1), (4, 5)]"
"[(2, 2), (3, 4)]",19,"[(1, 1), (4, 5)]"
`, stdout)
}

func TestRun_EuclideanWithClusters(t *testing.T) {
	input := writeInput(t, "points.bin")

	code, stdout, stderr := runCLI(t, "-p", "3", "-d", "euclidean", input)
	require.Equal(t, exitOK, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "initialization centroids,distortion,centroids,clusters", lines[0])
	for _, l := range lines[1:] {
		assert.Contains(t, l, `,11,"[(1, 1), (4, 5)]",`)
	}
	assert.Contains(t, stderr, "run completed")
}

func TestRun_CompressedInputAndOutput(t *testing.T) {
	input := writeInput(t, "points.bin.zst")
	out := filepath.Join(t.TempDir(), "result.csv.gz")

	code, stdout, stderr := runCLI(t, "-p", "4", "-f", out, "--log-format", "json", input)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	r, err := output.NewDecompressedReader(f, output.CompressionGzip)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	// Header plus C(4, 2) rows.
	assert.Equal(t, 7, strings.Count(string(data), "\n"))
	assert.Contains(t, stderr, `"msg":"run completed"`)
}

func TestRun_ParquetOutput(t *testing.T) {
	input := writeInput(t, "points.bin")
	dir := t.TempDir()

	code, _, stderr := runCLI(t, "-p", "5", "-f", filepath.Join(dir, "result.parquet"), input)
	require.Equal(t, exitOK, code, stderr)

	store := blobstore.NewLocalStore(dir)
	blob, err := store.Open(context.Background(), "result.parquet")
	require.NoError(t, err)
	defer blob.Close()

	m, ok := blob.(blobstore.Mappable)
	require.True(t, ok)
	data, err := m.Bytes()
	require.NoError(t, err)

	rows, err := output.ReadRows(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

func TestRun_UsageErrors(t *testing.T) {
	input := writeInput(t, "points.bin")

	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-k", "2"}},
		{"p below k", []string{"-k", "3", "-p", "2", input}},
		{"p above n", []string{"-p", "8", input}},
		{"zero threads", []string{"-n", "0", input}},
		{"bad distance", []string{"-d", "cosine", input}},
		{"unknown flag", []string{"-x", input}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout)
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI(t, "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "USAGE:")
	assert.Contains(t, stderr, "--metrics-addr")
}

func TestRun_MissingInput(t *testing.T) {
	code, _, stderr := runCLI(t, filepath.Join(t.TempDir(), "absent.bin"))
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr, "failed to read input")
}

func TestRun_MemoryLimitReportsProgress(t *testing.T) {
	input := writeInput(t, "points.bin")
	out := filepath.Join(t.TempDir(), "result.csv")

	code, _, stderr := runCLI(t, "-p", "3", "-f", out, "--memory-limit", "16", input)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr, "output is incomplete")
	assert.Contains(t, stderr, "first_missing=0")
	assert.Contains(t, stderr, "stage=generator")

	// The header was committed even though no row was.
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "initialization centroids,distortion,centroids,clusters\n", string(data))
}

func TestRun_ConfigFileAndEnv(t *testing.T) {
	input := writeInput(t, "points.bin")
	cfgPath := filepath.Join(t.TempDir(), "kcombo.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("k: 2\ncandidates: 3\nquiet: true\nworkers: 1\n"), 0o600))
	t.Setenv("KCOMBO_DISTANCE", "euclidean")

	code, stdout, stderr := runCLI(t, "--config", cfgPath, "--log-level", "warn", input)
	require.Equal(t, exitOK, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "initialization centroids,distortion,centroids\n"))
	assert.Contains(t, stdout, `",11,"`)

	// Flags override both.
	code, stdout, stderr = runCLI(t, "--config", cfgPath, "-d", "manhattan", "--log-level", "warn", input)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, `",19,"`)
}

func TestSplitBucket(t *testing.T) {
	bucket, key, err := splitBucket("data/runs/points.bin")
	require.NoError(t, err)
	assert.Equal(t, "data", bucket)
	assert.Equal(t, "runs/points.bin", key)

	for _, bad := range []string{"", "bucket", "bucket/", "/key"} {
		_, _, err := splitBucket(bad)
		assert.ErrorIs(t, err, ErrInvalidLocation, bad)
	}
}

func TestResolve_LocalPath(t *testing.T) {
	cfg := DefaultConfig()
	store, name, err := resolve(context.Background(), &cfg, "/tmp/points.bin")
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
	assert.Equal(t, "/tmp/points.bin", name)

	_, _, err = resolve(context.Background(), &cfg, "s3://bucket-only")
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

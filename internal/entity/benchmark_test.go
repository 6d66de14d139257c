package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBenchmarks(t *testing.T) {
	b, err := DefaultBenchmarks()
	require.NoError(t, err)

	got, err := b.Benchmark("Software Developer", "TX")
	require.NoError(t, err)
	assert.Equal(t, "software_developer", got.Occupation)
	assert.True(t, got.Salary.IsPositive())
	assert.False(t, got.SSTB)

	attorney, err := b.Benchmark("attorney", "")
	require.NoError(t, err)
	assert.True(t, attorney.SSTB)

	fallback, err := b.Benchmark("llama farmer", "")
	require.NoError(t, err)
	assert.Equal(t, "llama_farmer", fallback.Occupation)
	assert.True(t, decimal.NewFromInt(60000).Equal(fallback.Salary))
}

func TestLoadBenchmarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("occupations:\n  welder: {salary: 50000}\n"), 0o644))

	b, err := LoadBenchmarks(path)
	require.NoError(t, err)
	got, err := b.Benchmark("Welder", "NY")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50000).Equal(got.Salary))

	_, err = b.Benchmark("baker", "NY")
	assert.Error(t, err, "no default row")

	_, err = LoadBenchmarks(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseBenchmarks([]byte("occupations:\n  welder: {salary: -1}\n"))
	assert.Error(t, err)
	_, err = ParseBenchmarks([]byte("regions:\n  CA: 0\n"))
	assert.Error(t, err)
}

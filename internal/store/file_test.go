package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJobs() []domain.JobRecord {
	return []domain.JobRecord{
		{Name: "Vase", SourceFile: "/models/vase.3mf", Copies: 2, UseSweep: domain.Bool(true), CooldownTemp: domain.Int(30), Status: domain.JobStatusPending},
		{Name: "Clip", SourceFile: "/models/clip.3mf", Copies: domain.InfiniteCopies, CooldownTemp: domain.Int(30), Status: domain.JobStatusPending},
		{Name: "Bracket", SourceFile: "/models/bracket.3mf", Copies: 1, UseCooldown: true, CooldownTemp: domain.Int(40), Status: domain.JobStatusDone, TargetSerial: "ABC123"},
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore[domain.JobRecord](filepath.Join(t.TempDir(), "queue.json"), logger.NewNop().Logger)

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Vase",`), 0o644))

	s := NewFileStore[domain.JobRecord](path, logger.NewNop().Logger)

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "queue.json")
	s := NewFileStore[domain.JobRecord](path, logger.NewNop().Logger)

	jobs := sampleJobs()
	require.NoError(t, s.Save(ctx, jobs))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs, loaded)

	// save(load()) is stable
	require.NoError(t, s.Save(ctx, loaded))
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs, again)
}

func TestFileStore_SaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	s := NewFileStore[domain.JobRecord](path, logger.NewNop().Logger)

	require.NoError(t, s.Save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileStore_SaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	// the target path is an existing directory, so the rename must fail
	path := filepath.Join(dir, "queue.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0o644))

	s := NewFileStore[domain.JobRecord](path, logger.NewNop().Logger)

	err := s.Save(context.Background(), sampleJobs())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestFileStore_LibraryShape(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore[domain.LibraryJob](filepath.Join(t.TempDir(), "library.json"), logger.NewNop().Logger)

	lib := []domain.LibraryJob{
		{
			JobRecord: domain.JobRecord{Name: "Vase", SourceFile: "/models/vase.3mf", Copies: 3, GeneratedFile: "/gen/vase.3mf"},
			Thumbnail: []byte(`"iVBORw0KGgo="`),
		},
	}
	require.NoError(t, s.Save(ctx, lib))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "/gen/vase.3mf", loaded[0].GeneratedFile)
	assert.JSONEq(t, `"iVBORw0KGgo="`, string(loaded[0].Thumbnail))
}

func TestFileStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFileStore[domain.JobRecord](filepath.Join(t.TempDir(), "queue.json"), logger.NewNop().Logger)

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Save(ctx, nil), context.Canceled)
}

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/store"
	"github.com/cuongbtq/printq/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, jobs ...domain.JobRecord) (*Store, *store.FileStore[json.RawMessage]) {
	t.Helper()

	records := store.NewFileStore[json.RawMessage](filepath.Join(t.TempDir(), "queue.json"), logger.NewNop().Logger)
	if len(jobs) > 0 {
		entries := make([]json.RawMessage, 0, len(jobs))
		for _, job := range jobs {
			raw, err := json.Marshal(job)
			require.NoError(t, err)
			entries = append(entries, raw)
		}
		require.NoError(t, records.Save(context.Background(), entries))
	}

	return NewStore(records, logger.NewNop().Logger), records
}

// persisted decodes what is stored, without defaults
func persisted(t *testing.T, records store.RecordStore[json.RawMessage]) []domain.JobRecord {
	t.Helper()

	entries, err := records.Load(context.Background())
	require.NoError(t, err)

	jobs := make([]domain.JobRecord, len(entries))
	for i, raw := range entries {
		require.NoError(t, json.Unmarshal(raw, &jobs[i]))
	}
	return jobs
}

type failingSaves struct {
	store.RecordStore[json.RawMessage]
}

func (failingSaves) Save(context.Context, []json.RawMessage) error {
	return domain.ErrStorageUnavailable
}

func TestStore_FindByIdentifier_EmptyQueue(t *testing.T) {
	q, _ := newTestQueue(t)

	_, pos, err := q.FindByIdentifier(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, -1, pos)
}

func TestStore_FindByIdentifier(t *testing.T) {
	q, _ := newTestQueue(t,
		domain.JobRecord{Name: "Vase", SourceFile: "/m/vase.3mf", Copies: 1},
		domain.JobRecord{Name: "Clip", SourceFile: "/m/clip.3mf", Copies: 4},
		domain.JobRecord{Name: "clip", SourceFile: "/m/clip-v2.3mf", Copies: 2},
	)

	tests := []struct {
		name       string
		identifier string
		wantSource string
		wantPos    int
	}{
		{name: "first index", identifier: "1", wantSource: "/m/vase.3mf", wantPos: 0},
		{name: "last index", identifier: "3", wantSource: "/m/clip-v2.3mf", wantPos: 2},
		{name: "name case-insensitive", identifier: "VASE", wantSource: "/m/vase.3mf", wantPos: 0},
		{name: "first name match wins", identifier: "clip", wantSource: "/m/clip.3mf", wantPos: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, pos, err := q.FindByIdentifier(context.Background(), tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, job.SourceFile)
			assert.Equal(t, tt.wantPos, pos)
		})
	}

	for _, missing := range []string{"4", "0", "Vas", "vase.3mf"} {
		t.Run("missing "+missing, func(t *testing.T) {
			_, _, err := q.FindByIdentifier(context.Background(), missing)
			assert.ErrorIs(t, err, domain.ErrJobNotFound)
		})
	}
}

func TestStore_ListAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Legacy","source_file":"/m/legacy.3mf"}]`), 0o644))

	q := NewStore(store.NewFileStore[json.RawMessage](path, logger.NewNop().Logger), logger.NewNop().Logger)

	jobs, err := q.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Copies)
	assert.Equal(t, domain.JobStatusPending, jobs[0].Status)
	assert.Equal(t, 30, jobs[0].Cooldown())
	assert.True(t, jobs[0].Sweep())
}

func TestStore_AppendPersistsInOrder(t *testing.T) {
	ctx := context.Background()
	q, records := newTestQueue(t)

	require.NoError(t, q.Append(ctx, domain.JobRecord{Name: "First", SourceFile: "/m/1.3mf", Copies: 1}))
	require.NoError(t, q.Append(ctx, domain.JobRecord{Name: "Second", SourceFile: "/m/2.3mf", Copies: 2}))

	saved := persisted(t, records)
	require.Len(t, saved, 2)
	assert.Equal(t, "First", saved[0].Name)
	assert.Equal(t, "Second", saved[1].Name)
	assert.Equal(t, domain.JobStatusPending, saved[1].Status)
}

func TestStore_AppendStorageFailure(t *testing.T) {
	q, records := newTestQueue(t)
	q.records = failingSaves{records}

	err := q.Append(context.Background(), domain.JobRecord{Name: "Vase", Copies: 1})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestStore_MarkDone(t *testing.T) {
	ctx := context.Background()
	q, records := newTestQueue(t,
		domain.JobRecord{Name: "Vase", SourceFile: "/m/vase.3mf", Copies: 2},
		domain.JobRecord{Name: "Clip", SourceFile: "/m/clip.3mf", Copies: 1},
	)

	require.NoError(t, q.MarkDone(ctx, 1, "ABC123"))

	saved := persisted(t, records)
	assert.Empty(t, saved[0].Status)
	assert.Empty(t, saved[0].TargetSerial)
	assert.Equal(t, domain.JobStatusDone, saved[1].Status)
	assert.Equal(t, "ABC123", saved[1].TargetSerial)
}

func TestStore_MarkDoneInfiniteIsNoop(t *testing.T) {
	ctx := context.Background()
	q, records := newTestQueue(t,
		domain.JobRecord{Name: "Forever", SourceFile: "/m/forever.3mf", Copies: domain.InfiniteCopies, Status: domain.JobStatusPending},
	)

	require.NoError(t, q.MarkDone(ctx, 0, "ABC123"))

	saved := persisted(t, records)
	assert.Equal(t, domain.JobStatusPending, saved[0].Status)
	assert.Empty(t, saved[0].TargetSerial)
}

func TestStore_MarkDoneOutOfRange(t *testing.T) {
	q, _ := newTestQueue(t, domain.JobRecord{Name: "Vase", Copies: 1})

	assert.ErrorIs(t, q.MarkDone(context.Background(), 1, "ABC123"), domain.ErrJobNotFound)
	assert.ErrorIs(t, q.MarkDone(context.Background(), -1, "ABC123"), domain.ErrJobNotFound)
}

func TestStore_Add(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	model := filepath.Join(dir, "benchy.3mf")
	require.NoError(t, os.WriteFile(model, []byte("3mf"), 0o644))

	q, _ := newTestQueue(t)

	job, err := q.Add(ctx, AddRequest{SourceFile: model, Copies: 10, UseSweep: true})
	require.NoError(t, err)
	assert.Equal(t, "benchy", job.Name)
	assert.Equal(t, model, job.SourceFile)
	assert.Equal(t, 10, job.Copies)
	assert.True(t, job.Sweep())
	assert.False(t, job.UseCooldown)
	assert.Equal(t, 30, job.Cooldown())

	named, err := q.Add(ctx, AddRequest{SourceFile: model, Name: "Job1", Copies: domain.InfiniteCopies})
	require.NoError(t, err)
	assert.Equal(t, "Job1", named.Name)
	assert.False(t, named.Sweep())

	jobs, err := q.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestStore_AddRejects(t *testing.T) {
	ctx := context.Background()
	model := filepath.Join(t.TempDir(), "benchy.3mf")
	require.NoError(t, os.WriteFile(model, []byte("3mf"), 0o644))

	q, _ := newTestQueue(t)

	_, err := q.Add(ctx, AddRequest{SourceFile: filepath.Join(t.TempDir(), "missing.3mf"), Copies: 1})
	assert.ErrorIs(t, err, domain.ErrSourceFileNotFound)

	_, err = q.Add(ctx, AddRequest{SourceFile: model, Copies: 0})
	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "copies", validationErr.Field)

	jobs, err := q.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStore_ConcurrentAppendsKeepEveryJob(t *testing.T) {
	ctx := context.Background()
	q, records := newTestQueue(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, q.Append(ctx, domain.JobRecord{
				Name:       fmt.Sprintf("Job %d", i),
				SourceFile: fmt.Sprintf("/m/%d.3mf", i),
				Copies:     1,
			}))
		}(i)
	}
	wg.Wait()

	saved := persisted(t, records)
	require.Len(t, saved, n)

	names := make(map[string]bool, n)
	for _, job := range saved {
		names[job.Name] = true
	}
	assert.Len(t, names, n)
}

const desktopEntry = `{"name":"Cold Plate","source_file":"/m/plate.3mf","copies":2,"cooldown_temp":0,"thumbnail":"aGVsbG8=","plate":3}`

func compact(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, raw))
	return buf.Bytes()
}

func TestStore_AppendKeepsUntouchedEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte("["+desktopEntry+"]"), 0o644))

	records := store.NewFileStore[json.RawMessage](path, logger.NewNop().Logger)
	q := NewStore(records, logger.NewNop().Logger)

	jobs, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 0, jobs[0].Cooldown(), "explicit zero is not defaulted")
	assert.Equal(t, domain.JobStatusPending, jobs[0].Status)

	require.NoError(t, q.Append(ctx, domain.JobRecord{Name: "Clip", SourceFile: "/m/clip.3mf", Copies: 1}))

	entries, err := records.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, string(compact(t, []byte(desktopEntry))), string(compact(t, entries[0])))
}

func TestStore_MarkDoneOnlyRewritesStatusFields(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.json")
	other := `{"name":"Clip","source_file":"/m/clip.3mf"}`
	require.NoError(t, os.WriteFile(path, []byte("["+desktopEntry+","+other+"]"), 0o644))

	records := store.NewFileStore[json.RawMessage](path, logger.NewNop().Logger)
	q := NewStore(records, logger.NewNop().Logger)

	require.NoError(t, q.MarkDone(ctx, 0, "ABC123"))

	entries, err := records.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.JSONEq(t,
		`{"name":"Cold Plate","source_file":"/m/plate.3mf","copies":2,"cooldown_temp":0,"thumbnail":"aGVsbG8=","plate":3,"status":"done","target_serial":"ABC123"}`,
		string(entries[0]))
	assert.Equal(t, other, string(compact(t, entries[1])))
}

func TestStore_MalformedEntryKeepsPosition(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not a job",{"name":"Vase","source_file":"/m/vase.3mf"}]`), 0o644))

	records := store.NewFileStore[json.RawMessage](path, logger.NewNop().Logger)
	q := NewStore(records, logger.NewNop().Logger)

	jobs, err := q.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, domain.UnknownJobName, jobs[0].DisplayName())

	_, pos, err := q.FindByIdentifier(ctx, "vase")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	assert.ErrorIs(t, q.MarkDone(ctx, 0, "ABC123"), domain.ErrStorageUnavailable)

	require.NoError(t, q.MarkDone(ctx, 1, "ABC123"))
	entries, err := records.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"not a job"`, string(entries[0]))
}

package dispatcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/styleinfer/pkg/cache"
)

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	backend, err := cache.OpenDir(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return cache.New(backend)
}

func echoJob(key, text string) Job {
	return Job{
		CacheKey: key,
		Exe:      "sh",
		Argv:     []string{"-c", "echo -n " + text},
		Timeout:  time.Second,
	}
}

func TestRunPreservesSubmissionOrder(t *testing.T) {
	d := New(ModeOff, nil)

	jobs := []Job{echoJob("a", "first"), echoJob("b", "second"), echoJob("c", "third")}
	results, err := d.Run(context.Background(), jobs)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", string(results[0].Stdout))
	assert.Equal(t, "second", string(results[1].Stdout))
	assert.Equal(t, "third", string(results[2].Stdout))
}

func TestRunModeOffExecutesInline(t *testing.T) {
	d := New(ModeOff, nil)

	results, err := d.Run(context.Background(), []Job{echoJob("a", "hello")})

	require.NoError(t, err)
	assert.Equal(t, "hello", string(results[0].Stdout))
	assert.False(t, results[0].CacheHit)
}

func TestRunProcessesModeConcurrent(t *testing.T) {
	d := New(ModeProcesses, nil)

	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = echoJob("job", "x")
	}
	results, err := d.Run(context.Background(), jobs)

	require.NoError(t, err)
	require.Len(t, results, 8)
	for _, r := range results {
		assert.Equal(t, "x", string(r.Stdout))
	}
}

func TestRunServesCachedResultsWithoutExecuting(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.Put("cached-key", cache.PackResult(0, []byte("cached output"), nil)))

	d := New(ModeOff, c)
	job := Job{CacheKey: "cached-key", Exe: "sh", Argv: []string{"-c", "echo should-not-run"}, Timeout: time.Second}

	results, err := d.Run(context.Background(), []Job{job})

	require.NoError(t, err)
	assert.True(t, results[0].CacheHit)
	assert.Equal(t, "cached output", string(results[0].Stdout))
}

func TestRunWritesBackMissesToCache(t *testing.T) {
	c := newCache(t)
	d := New(ModeOff, c)

	job := echoJob("fresh-key", "computed")
	results, err := d.Run(context.Background(), []Job{job})
	require.NoError(t, err)
	require.False(t, results[0].CacheHit)
	require.Equal(t, "computed", string(results[0].Stdout))

	v, ok, err := c.Get("fresh-key")
	require.NoError(t, err)
	require.True(t, ok)
	exitCode, stdout, _, err := cache.UnpackResult(v)
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, "computed", string(stdout))
}

func TestRunEmptyBatch(t *testing.T) {
	d := New(ModeProcesses, nil)

	results, err := d.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesExitCodeAndStreams(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2; exit 3"}, nil, time.Second)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Empty(t, res.OSError)
	assert.False(t, res.TimedOut)
}

func TestRunFeedsStdin(t *testing.T) {
	res := Run(context.Background(), "cat", nil, []byte("hello"), time.Second)

	require.Empty(t, res.OSError)
	assert.Equal(t, "hello", string(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunReportsMissingExecutable(t *testing.T) {
	res := Run(context.Background(), "/no/such/binary-xyz", nil, nil, time.Second)

	assert.NotEmpty(t, res.OSError)
	assert.Empty(t, res.Stdout)
}

func TestRunEnforcesTimeout(t *testing.T) {
	res := Run(context.Background(), "sleep", []string{"5"}, nil, 20*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.NotEmpty(t, res.OSError)
}

func TestRunDefaultTimeoutUsedWhenNonPositive(t *testing.T) {
	res := Run(context.Background(), "sh", []string{"-c", "echo ok"}, nil, 0)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "ok\n", string(res.Stdout))
}

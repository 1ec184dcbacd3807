package shared

import (
	"bytes"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalCancelsAndReportsAbandonedChunk(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := SetupSignalHandler(zerolog.New(&buf))
	defer cancel()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after SIGINT")
	}
	assert.Contains(t, buf.String(), "abandoning current chunk")
	assert.Contains(t, buf.String(), `"signal":"interrupt"`)
}

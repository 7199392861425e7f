package actor_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcstate/hsm/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actor.yaml")
	contents := []byte(`
tick_interval: 50ms
deferred_queue_bound: 10
deferred_overflow_policy: drop_newest
max_anonymous_chain: 100
`)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := actor.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 10, cfg.DeferredQueueBound)
	assert.Equal(t, "drop_newest", cfg.DeferredOverflowPolicy)
	assert.Equal(t, 100, cfg.MaxAnonymousChain)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := actor.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/events"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
)

func TestJournalAppendsGlobalEventsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	bus := eventbus.New()
	defer bus.Close()

	j := New(bus, logger.NopLogger{}, Config{Path: path})
	j.now = func() time.Time { return time.Unix(1000, 0) }

	ctx, cancel := context.WithCancel(context.Background())
	go j.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	// Published on three topics but journaled once, via the global copy.
	events.Publish(bus, events.DispatchCreated{
		DispatchID: "d1", RequestID: "e1", RequesterID: "r1", HolderID: "h1",
	})
	events.Publish(bus, events.DispatchCompleted{DispatchID: "d1", HolderID: "h1"})

	deadline := time.Now().Add(2 * time.Second)
	var lines []string
	for time.Now().Before(deadline) {
		lines = readLines(t, path)
		if len(lines) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	require.Len(t, lines, 2)
	var first struct {
		Kind  string `json:"kind"`
		Topic string `json:"topic"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "dispatch-created", first.Kind)
	assert.Equal(t, "global", first.Topic)
	var second struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "dispatch-completed", second.Kind)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	require.NoError(t, sc.Err())
	return out
}

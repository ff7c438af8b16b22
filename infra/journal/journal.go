// Package journal appends every coordinator event to a rotating JSONL file.
// The journal is an audit trail, not a recovery log; state recovery comes
// from the store.
package journal

import (
	"context"
	"encoding/json"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/events"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
)

// Config holds the journal file settings.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies the standard rotation policy.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "events.jsonl"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 50
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 30
	}
}

type line struct {
	TS    time.Time    `json:"ts"`
	Topic string       `json:"topic"`
	Kind  string       `json:"kind"`
	Data  events.Event `json:"data"`
}

// Journal subscribes to the bus firehose and appends one JSON line per
// delivered event. Global-topic deliveries only, so each event is journaled
// once rather than once per audience.
type Journal struct {
	bus *eventbus.Bus
	out *lumberjack.Logger
	log logger.Logger
	now func() time.Time
}

// New creates a Journal writing to the configured file.
func New(bus *eventbus.Bus, log logger.Logger, cfg Config) *Journal {
	cfg.SetDefaults()
	return &Journal{
		bus: bus,
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		},
		log: log,
		now: time.Now,
	}
}

// Run appends events until the context is canceled or the bus closes.
func (j *Journal) Run(ctx context.Context) {
	ch := j.bus.SubscribeAll()
	defer j.bus.UnsubscribeAll(ch)
	defer func() { _ = j.out.Close() }()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			j.append(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (j *Journal) append(msg eventbus.Message) {
	if msg.Topic != eventbus.TopicGlobal {
		return
	}
	ev, ok := msg.Event.(events.Event)
	if !ok {
		return
	}
	raw, err := json.Marshal(line{TS: j.now().UTC(), Topic: string(msg.Topic), Kind: ev.Kind(), Data: ev})
	if err != nil {
		j.log.Errorf("journal encode %s: %v", ev.Kind(), err)
		return
	}
	raw = append(raw, '\n')
	if _, err := j.out.Write(raw); err != nil {
		j.log.Errorf("journal write: %v", err)
	}
}

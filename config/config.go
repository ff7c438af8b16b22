package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/journal"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/mqtt"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/store"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/metrics"
)

type Config struct {
	API        APIConfig        `json:"api"`
	Store      store.Config     `json:"store"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Metrics    metrics.Config   `json:"metrics"`
	Journal    journal.Config   `json:"journal"`
	Dispatch   DispatchConfig   `json:"dispatch"`
	Reconciler ReconcilerConfig `json:"reconciler"`
	Transit    TransitConfig    `json:"transit"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CURA_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cura_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Journal.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Reconciler.SetDefaults()
	cfg.Transit.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/allocation"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/transit"
)

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies the standard listen address.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// DispatchConfig bounds the simulated round-trip duration of a dispatch.
type DispatchConfig struct {
	ReturnMinMinutes int `json:"return_min_minutes"`
	ReturnMaxMinutes int `json:"return_max_minutes"`
}

// SetDefaults applies the standard 10-20 minute window.
func (c *DispatchConfig) SetDefaults() {
	if c.ReturnMinMinutes <= 0 {
		c.ReturnMinMinutes = 10
	}
	if c.ReturnMaxMinutes <= 0 {
		c.ReturnMaxMinutes = 20
	}
}

// Validate checks the window bounds.
func (c DispatchConfig) Validate() error {
	if c.ReturnMaxMinutes < c.ReturnMinMinutes {
		return fmt.Errorf("return window [%d, %d] minutes is inverted", c.ReturnMinMinutes, c.ReturnMaxMinutes)
	}
	return nil
}

// Engine converts the config into the allocation engine's tunables.
func (c DispatchConfig) Engine() allocation.Config {
	return allocation.Config{
		MinReturn: time.Duration(c.ReturnMinMinutes) * time.Minute,
		MaxReturn: time.Duration(c.ReturnMaxMinutes) * time.Minute,
	}
}

// ReconcilerConfig holds the sweep cadence.
type ReconcilerConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults applies the standard one-minute sweep.
func (c *ReconcilerConfig) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 60
	}
}

// Interval returns the sweep interval as a duration.
func (c ReconcilerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// TransitConfig holds the simulated position feed cadence.
type TransitConfig struct {
	TickSeconds int `json:"tick_seconds"`
	Steps       int `json:"steps"`
}

// SetDefaults applies the standard cadence.
func (c *TransitConfig) SetDefaults() {
	if c.TickSeconds <= 0 {
		c.TickSeconds = 5
	}
	if c.Steps <= 0 {
		c.Steps = 20
	}
}

// Feed converts the config into the simulator's tunables.
func (c TransitConfig) Feed() transit.Config {
	return transit.Config{
		Tick:  time.Duration(c.TickSeconds) * time.Second,
		Steps: c.Steps,
	}
}

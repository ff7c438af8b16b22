// Package scenarios runs YAML-described admission scenarios against the
// allocation engine. Each file declares one hospital, a sequence of steps and
// the expected outcome tallies.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
)

type CountersDef struct {
	Beds       int `yaml:"beds"`
	ICU        int `yaml:"icu"`
	Oxygen     int `yaml:"oxygen"`
	Ambulances int `yaml:"ambulances"`
}

func (c CountersDef) ToModel() model.Counters {
	return model.Counters{
		Beds:       model.Capacity{Total: c.Beds, Available: c.Beds},
		ICU:        model.Capacity{Total: c.ICU, Available: c.ICU},
		Oxygen:     model.Capacity{Total: c.Oxygen, Available: c.Oxygen},
		Ambulances: model.Capacity{Total: c.Ambulances, Available: c.Ambulances},
	}
}

// Step is one action against the engine. Exactly one of the fields drives it:
// a submission when Severity is set, a totals change when Totals is set, or a
// completion sweep when CompleteAll is true.
type Step struct {
	ID          string       `yaml:"id,omitempty"`
	Severity    int          `yaml:"severity,omitempty"`
	Totals      *CountersDef `yaml:"totals,omitempty"`
	CompleteAll bool         `yaml:"complete_all,omitempty"`
	Reject      string       `yaml:"reject,omitempty"`
}

type Expected struct {
	Dispatched int `yaml:"dispatched"`
	Queued     int `yaml:"queued"`
	Rejected   int `yaml:"rejected"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Counters    CountersDef `yaml:"counters"`
	Steps       []Step      `yaml:"steps"`
	Expected    Expected    `yaml:"expected"`
}

// Load reads one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

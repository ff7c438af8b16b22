package model

import "fmt"

// ResourceKind identifies one of a hospital's four resource pools.
type ResourceKind string

const (
	ResourceBeds       ResourceKind = "beds"
	ResourceICU        ResourceKind = "icu"
	ResourceOxygen     ResourceKind = "oxygen"
	ResourceAmbulances ResourceKind = "ambulances"
)

// Capacity tracks a single resource pool. Available never exceeds Total.
type Capacity struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

// Counters holds the live capacity of all four pools of one hospital.
type Counters struct {
	Beds       Capacity `json:"beds"`
	ICU        Capacity `json:"icu"`
	Oxygen     Capacity `json:"oxygen"`
	Ambulances Capacity `json:"ambulances"`
}

// Totals carries a capacity change for all pools.
type Totals struct {
	Beds       int `json:"beds"`
	ICU        int `json:"icu"`
	Oxygen     int `json:"oxygen"`
	Ambulances int `json:"ambulances"`
}

// CanReserve reports whether every pool required by r has at least one
// available unit.
func (c Counters) CanReserve(r RequirementSet) bool {
	if r.Bed && c.Beds.Available <= 0 {
		return false
	}
	if r.ICU && c.ICU.Available <= 0 {
		return false
	}
	if r.Oxygen && c.Oxygen.Available <= 0 {
		return false
	}
	if r.Ambulance && c.Ambulances.Available <= 0 {
		return false
	}
	return true
}

// Reserve decrements every pool required by r. Callers must have checked
// CanReserve under the same holder lock; Reserve itself does not re-check.
func (c *Counters) Reserve(r RequirementSet) {
	if r.Bed {
		c.Beds.Available--
	}
	if r.ICU {
		c.ICU.Available--
	}
	if r.Oxygen {
		c.Oxygen.Available--
	}
	if r.Ambulance {
		c.Ambulances.Available--
	}
}

// Release increments every pool required by r, clamping at the pool total.
// It returns the kinds that had to be clamped; a non-empty result indicates
// an over-release upstream.
func (c *Counters) Release(r RequirementSet) []ResourceKind {
	var clamped []ResourceKind
	inc := func(cap *Capacity, kind ResourceKind) {
		if cap.Available >= cap.Total {
			clamped = append(clamped, kind)
			return
		}
		cap.Available++
	}
	if r.Bed {
		inc(&c.Beds, ResourceBeds)
	}
	if r.ICU {
		inc(&c.ICU, ResourceICU)
	}
	if r.Oxygen {
		inc(&c.Oxygen, ResourceOxygen)
	}
	if r.Ambulance {
		inc(&c.Ambulances, ResourceAmbulances)
	}
	return clamped
}

// ApplyTotals changes pool totals, shifting availability by the same delta so
// outstanding reservations are preserved. Availability is clamped to
// [0, newTotal].
func (c *Counters) ApplyTotals(t Totals) {
	apply := func(cap *Capacity, total int) {
		delta := total - cap.Total
		cap.Total = total
		cap.Available += delta
		if cap.Available < 0 {
			cap.Available = 0
		}
		if cap.Available > cap.Total {
			cap.Available = cap.Total
		}
	}
	apply(&c.Beds, t.Beds)
	apply(&c.ICU, t.ICU)
	apply(&c.Oxygen, t.Oxygen)
	apply(&c.Ambulances, t.Ambulances)
}

// Validate checks the 0 <= available <= total invariant on every pool.
func (c Counters) Validate() error {
	check := func(cap Capacity, kind ResourceKind) error {
		if cap.Total < 0 || cap.Available < 0 || cap.Available > cap.Total {
			return fmt.Errorf("pool %s: available=%d total=%d", kind, cap.Available, cap.Total)
		}
		return nil
	}
	for _, p := range []struct {
		cap  Capacity
		kind ResourceKind
	}{
		{c.Beds, ResourceBeds},
		{c.ICU, ResourceICU},
		{c.Oxygen, ResourceOxygen},
		{c.Ambulances, ResourceAmbulances},
	} {
		if err := check(p.cap, p.kind); err != nil {
			return err
		}
	}
	return nil
}

package controller

import (
	"encoding/json"

	"github.com/muurk/anthemctl/internal/protocol"
)

// Observed is a value reported by the receiver. The zero value is "not yet
// observed", which is distinct from an observed zero or false.
type Observed[T any] struct {
	value T
	known bool
}

// Observe returns an observed value.
func Observe[T any](v T) Observed[T] {
	return Observed[T]{value: v, known: true}
}

// Get returns the value and whether it has been observed.
func (o Observed[T]) Get() (T, bool) {
	return o.value, o.known
}

// Value returns the value, or the zero value if not yet observed.
func (o Observed[T]) Value() T {
	return o.value
}

// Known reports whether the value has been observed.
func (o Observed[T]) Known() bool {
	return o.known
}

// MarshalJSON encodes an unobserved value as null.
func (o Observed[T]) MarshalJSON() ([]byte, error) {
	if !o.known {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as unobserved.
func (o *Observed[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Observed[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Observe(v)
	return nil
}

// Zone is the observed state of one receiver zone. Values handed out by the
// controller are snapshots; mutating them has no effect on the controller.
type Zone struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Main bool   `json:"main"`

	Power         Observed[bool]               `json:"power"`
	Muted         Observed[bool]               `json:"muted"`
	Input         Observed[int]                `json:"input"`
	Volume        Observed[float64]            `json:"volume"`
	VolumePercent Observed[int]                `json:"volume_percent"`
	ALM           Observed[int]                `json:"alm"`
	ARCEnabled    Observed[bool]               `json:"arc_enabled"`
	ARCConfigured Observed[bool]               `json:"arc_configured"`
	Dolby         Observed[protocol.DolbyMode] `json:"dolby"`
}

// Configured reports whether the zone's power state has been observed. The
// controller is not ready until every registered zone is configured.
func (z *Zone) Configured() bool {
	return z.Power.Known()
}

// reset forgets every observation, keeping the registration.
func (z *Zone) reset() {
	*z = Zone{ID: z.ID, Name: z.Name, Main: z.Main}
}

func validZoneID(id int) bool {
	return id == 1 || id == 2
}

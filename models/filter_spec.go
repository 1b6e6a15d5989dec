// ABOUTME: Filter configuration consumed by the filter engine
// ABOUTME: Pure data; DefaultFilterSpec passes every record
package models

import "math"

type TypeFilter string

const (
	TypeAll        TypeFilter = "all"
	TypeIndividual TypeFilter = "individual"
	TypeGrouped    TypeFilter = "grouped"
)

// TriState is an all/yes/no toggle.
type TriState string

const (
	TriAll TriState = "all"
	TriYes TriState = "yes"
	TriNo  TriState = "no"
)

// IntRange is an inclusive [Min, Max] range.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies within the range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// FilterSpec configures which records are visible.
//
// The count ranges always apply, so a zero-value FilterSpec only admits records
// with no associates and no employees. Start from DefaultFilterSpec.
type FilterSpec struct {
	Type               TypeFilter      `json:"type"`
	NegotiationService TriState        `json:"negotiation_service"`
	Associates         IntRange        `json:"associates"`
	Employees          IntRange        `json:"employees"`
	Statuses           []Status        `json:"statuses,omitempty"`
	ContactStatuses    []ContactStatus `json:"contact_statuses,omitempty"`
	ShowUncontacted    bool            `json:"show_uncontacted"`
	OnlyWithEmail      bool            `json:"only_with_email"`
	OnlyInRadius       bool            `json:"only_in_radius"`
	Zones              []InterestZone  `json:"zones,omitempty"`
}

// DefaultFilterSpec returns a spec that admits every record.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Type:               TypeAll,
		NegotiationService: TriAll,
		Associates:         IntRange{Min: 0, Max: math.MaxInt},
		Employees:          IntRange{Min: 0, Max: math.MaxInt},
	}
}

// ABOUTME: Validation predicates gating decoded rows into the in-memory store
// ABOUTME: Uses go-playground/validator struct tags; predicates never panic or error
package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidRecord reports whether r has a non-empty id and name.
func IsValidRecord(r *Record) bool {
	if r == nil {
		return false
	}
	return validate.Struct(r) == nil
}

// IsValidInterestZone reports whether z has a non-empty id and name.
func IsValidInterestZone(z *InterestZone) bool {
	if z == nil {
		return false
	}
	return validate.StructPartial(z, "ID", "Name") == nil
}

// IsValidInterestZoneStrict is the load-time variant: it also requires a positive
// radius and in-range center coordinates.
func IsValidInterestZoneStrict(z *InterestZone) bool {
	if z == nil {
		return false
	}
	return validate.Struct(z) == nil
}

// ABOUTME: Tests for record and interest zone validation predicates
// ABOUTME: Covers required fields and the strict load-time zone variant
package models

import "testing"

func TestIsValidRecord(t *testing.T) {
	tests := []struct {
		name   string
		record *Record
		want   bool
	}{
		{"nil", nil, false},
		{"empty", &Record{}, false},
		{"missing name", &Record{ID: "n1"}, false},
		{"missing id", &Record{Name: "Etude"}, false},
		{"minimal", &Record{ID: "n1", Name: "Etude"}, true},
		{"negative counts still valid", &Record{ID: "n1", Name: "Etude", AssociateCount: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidRecord(tt.record); got != tt.want {
				t.Errorf("IsValidRecord() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidInterestZone(t *testing.T) {
	tests := []struct {
		name       string
		zone       *InterestZone
		wantLax    bool
		wantStrict bool
	}{
		{"nil", nil, false, false},
		{"missing name", &InterestZone{ID: "z1"}, false, false},
		{"no radius", &InterestZone{ID: "z1", Name: "Lyon"}, true, false},
		{"full", &InterestZone{ID: "z1", Name: "Lyon", RadiusKm: 10, Latitude: 45.76, Longitude: 4.83, Region: "ARA"}, true, true},
		{"latitude out of range", &InterestZone{ID: "z1", Name: "Lyon", RadiusKm: 10, Latitude: 95, Longitude: 4.83}, true, false},
		{"negative radius", &InterestZone{ID: "z1", Name: "Lyon", RadiusKm: -1, Latitude: 45, Longitude: 4}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidInterestZone(tt.zone); got != tt.wantLax {
				t.Errorf("IsValidInterestZone() = %v, want %v", got, tt.wantLax)
			}
			if got := IsValidInterestZoneStrict(tt.zone); got != tt.wantStrict {
				t.Errorf("IsValidInterestZoneStrict() = %v, want %v", got, tt.wantStrict)
			}
		})
	}
}

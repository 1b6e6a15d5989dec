// ABOUTME: Positional row codec between spreadsheet cells and domain models
// ABOUTME: Tolerates French-locale decimals and loose boolean spellings
package sync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
)

// Record columns.
const (
	colID = iota
	colName
	colStreet
	colPostalCode
	colCity
	colEmail
	colLatitude
	colLongitude
	colNeedsGeocoding
	colStatus
	colAssociateCount
	colEmployeeCount
	colAssociateNames
	colEmployeeNames
	colNegotiationService
	colContacts
	colNotes
	colModifiedAt
	colGeocodeScore
	colGeocode
)

// Zone columns.
const (
	zoneColID = iota
	zoneColName
	zoneColRadius
	zoneColLatitude
	zoneColLongitude
	zoneColRegion
	zoneColPopulation
)

// geocodeCell is the JSON payload stored in the geocode column.
type geocodeCell struct {
	Status  string                  `json:"status,omitempty"`
	History []models.GeocodeAttempt `json:"history,omitempty"`
}

// DecodeRecordRow converts one sheet row into a Record. sheetRow is the 1-based
// row the cells were read from.
func DecodeRecordRow(row []string, sheetRow int) (models.Record, error) {
	cells := remote.PadRow(row, remote.RecordColumns)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}

	rec := models.Record{
		ID:                 cells[colID],
		Name:               cells[colName],
		Street:             cells[colStreet],
		PostalCode:         cells[colPostalCode],
		City:               cells[colCity],
		Email:              cells[colEmail],
		Status:             models.ParseStatus(cells[colStatus]),
		AssociateCount:     parseCount(cells[colAssociateCount]),
		EmployeeCount:      parseCount(cells[colEmployeeCount]),
		AssociateNames:     cells[colAssociateNames],
		EmployeeNames:      cells[colEmployeeNames],
		NegotiationService: parseBool(cells[colNegotiationService]),
		NeedsGeocoding:     parseBool(cells[colNeedsGeocoding]),
		Notes:              cells[colNotes],
		ModifiedAt:         parseTime(cells[colModifiedAt]),
		SheetRow:           sheetRow,
	}

	var err error
	if rec.Latitude, err = parseFloat(cells[colLatitude]); err != nil {
		return models.Record{}, fmt.Errorf("row %d: invalid latitude %q: %w", sheetRow, cells[colLatitude], err)
	}
	if rec.Longitude, err = parseFloat(cells[colLongitude]); err != nil {
		return models.Record{}, fmt.Errorf("row %d: invalid longitude %q: %w", sheetRow, cells[colLongitude], err)
	}
	if rec.GeocodeScore, err = parseFloat(cells[colGeocodeScore]); err != nil {
		return models.Record{}, fmt.Errorf("row %d: invalid geocode score %q: %w", sheetRow, cells[colGeocodeScore], err)
	}

	if c := cells[colContacts]; c != "" {
		if err := json.Unmarshal([]byte(c), &rec.Contacts); err != nil {
			return models.Record{}, fmt.Errorf("row %d: failed to parse contacts: %w", sheetRow, err)
		}
	}
	if g := cells[colGeocode]; g != "" {
		var gc geocodeCell
		if err := json.Unmarshal([]byte(g), &gc); err != nil {
			return models.Record{}, fmt.Errorf("row %d: failed to parse geocode: %w", sheetRow, err)
		}
		rec.GeocodeStatus = gc.Status
		rec.GeocodeHistory = gc.History
	}

	return rec, nil
}

// EncodeRecordRow converts a Record into a full-width sheet row.
func EncodeRecordRow(rec models.Record) ([]string, error) {
	row := make([]string, remote.RecordColumns)
	row[colID] = rec.ID
	row[colName] = rec.Name
	row[colStreet] = rec.Street
	row[colPostalCode] = rec.PostalCode
	row[colCity] = rec.City
	row[colEmail] = rec.Email
	if rec.HasCoordinates() {
		row[colLatitude] = formatFloat(rec.Latitude)
		row[colLongitude] = formatFloat(rec.Longitude)
	}
	row[colNeedsGeocoding] = strconv.FormatBool(rec.NeedsGeocoding)
	status := rec.Status
	if status == "" {
		status = models.StatusUndefined
	}
	row[colStatus] = string(status)
	row[colAssociateCount] = strconv.Itoa(rec.AssociateCount)
	row[colEmployeeCount] = strconv.Itoa(rec.EmployeeCount)
	row[colAssociateNames] = rec.AssociateNames
	row[colEmployeeNames] = rec.EmployeeNames
	row[colNegotiationService] = strconv.FormatBool(rec.NegotiationService)

	if len(rec.Contacts) > 0 {
		data, err := json.Marshal(rec.Contacts)
		if err != nil {
			return nil, fmt.Errorf("failed to encode contacts: %w", err)
		}
		row[colContacts] = string(data)
	}

	row[colNotes] = rec.Notes
	if !rec.ModifiedAt.IsZero() {
		row[colModifiedAt] = rec.ModifiedAt.UTC().Format(time.RFC3339)
	}
	if rec.GeocodeScore != 0 {
		row[colGeocodeScore] = formatFloat(rec.GeocodeScore)
	}

	if rec.GeocodeStatus != "" || len(rec.GeocodeHistory) > 0 {
		data, err := json.Marshal(geocodeCell{Status: rec.GeocodeStatus, History: rec.GeocodeHistory})
		if err != nil {
			return nil, fmt.Errorf("failed to encode geocode: %w", err)
		}
		row[colGeocode] = string(data)
	}

	return row, nil
}

// DecodeZoneRow converts one sheet row into an InterestZone. Radius and
// coordinates must be numeric.
func DecodeZoneRow(row []string) (models.InterestZone, error) {
	cells := remote.PadRow(row, remote.ZoneColumns)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}

	z := models.InterestZone{
		ID:     cells[zoneColID],
		Name:   cells[zoneColName],
		Region: cells[zoneColRegion],
	}

	var err error
	if z.RadiusKm, err = parseRequiredFloat(cells[zoneColRadius]); err != nil {
		return models.InterestZone{}, fmt.Errorf("zone %q: invalid radius: %w", z.ID, err)
	}
	if z.Latitude, err = parseRequiredFloat(cells[zoneColLatitude]); err != nil {
		return models.InterestZone{}, fmt.Errorf("zone %q: invalid latitude: %w", z.ID, err)
	}
	if z.Longitude, err = parseRequiredFloat(cells[zoneColLongitude]); err != nil {
		return models.InterestZone{}, fmt.Errorf("zone %q: invalid longitude: %w", z.ID, err)
	}

	if p := cells[zoneColPopulation]; p != "" {
		f, err := parseFloat(strings.ReplaceAll(p, " ", ""))
		if err != nil {
			return models.InterestZone{}, fmt.Errorf("zone %q: invalid population %q: %w", z.ID, p, err)
		}
		n := int(f)
		z.Population = &n
	}

	return z, nil
}

// EncodeZoneRow converts an InterestZone into a full-width sheet row.
func EncodeZoneRow(z models.InterestZone) []string {
	row := make([]string, remote.ZoneColumns)
	row[zoneColID] = z.ID
	row[zoneColName] = z.Name
	row[zoneColRadius] = formatFloat(z.RadiusKm)
	row[zoneColLatitude] = formatFloat(z.Latitude)
	row[zoneColLongitude] = formatFloat(z.Longitude)
	row[zoneColRegion] = z.Region
	if z.Population != nil {
		row[zoneColPopulation] = strconv.Itoa(*z.Population)
	}
	return row
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func parseRequiredFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return parseFloat(s)
}

// parseCount reads a non-negative integer; anything else counts as zero.
func parseCount(s string) int {
	f, err := parseFloat(s)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "oui", "yes", "x", "vrai":
		return true
	default:
		return false
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ABOUTME: Interest zone MCP tool handlers
// ABOUTME: Implements list_zones, save_zone and remove_zone
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ZoneHandlers struct {
	store *sync.Store
}

func NewZoneHandlers(store *sync.Store) *ZoneHandlers {
	return &ZoneHandlers{store: store}
}

type ZoneOutput struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	RadiusKm   float64 `json:"radius_km"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Region     string  `json:"region,omitempty"`
	Population *int    `json:"population,omitempty"`
}

type ListZonesInput struct{}

type ListZonesOutput struct {
	Zones []ZoneOutput `json:"zones"`
}

func (h *ZoneHandlers) ListZones(_ context.Context, _ *mcp.CallToolRequest, _ ListZonesInput) (*mcp.CallToolResult, ListZonesOutput, error) {
	if h.store.State() != sync.StateReady {
		return nil, ListZonesOutput{}, sync.ErrNotInitialized
	}
	zones := h.store.GetInterestZones()
	out := ListZonesOutput{Zones: make([]ZoneOutput, len(zones))}
	for i := range zones {
		out.Zones[i] = zoneToOutput(&zones[i])
	}
	return nil, out, nil
}

type SaveZoneInput struct {
	ID         string  `json:"id,omitempty" jsonschema:"Zone ID; omit to create a new zone"`
	Name       string  `json:"name" jsonschema:"Zone name (required)"`
	RadiusKm   float64 `json:"radius_km" jsonschema:"Radius in kilometers (required)"`
	Latitude   float64 `json:"latitude" jsonschema:"Center latitude (required)"`
	Longitude  float64 `json:"longitude" jsonschema:"Center longitude (required)"`
	Region     string  `json:"region,omitempty" jsonschema:"Region name"`
	Population *int    `json:"population,omitempty" jsonschema:"Population of the area"`
}

func (h *ZoneHandlers) SaveZone(ctx context.Context, _ *mcp.CallToolRequest, input SaveZoneInput) (*mcp.CallToolResult, ZoneOutput, error) {
	zone := models.InterestZone{
		ID:         input.ID,
		Name:       input.Name,
		RadiusKm:   input.RadiusKm,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Region:     input.Region,
		Population: input.Population,
	}
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	if !models.IsValidInterestZoneStrict(&zone) {
		return nil, ZoneOutput{}, fmt.Errorf("%w: name, a positive radius and valid coordinates are required", sync.ErrInvalidInterestZone)
	}

	zones := UpsertZone(h.store.GetInterestZones(), zone)
	if err := h.store.UpdateInterestZones(ctx, zones); err != nil {
		return nil, ZoneOutput{}, fmt.Errorf("failed to save zone: %w", err)
	}
	return nil, zoneToOutput(&zone), nil
}

type RemoveZoneInput struct {
	ID string `json:"id" jsonschema:"Zone ID (required)"`
}

type RemoveZoneOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ZoneHandlers) RemoveZone(ctx context.Context, _ *mcp.CallToolRequest, input RemoveZoneInput) (*mcp.CallToolResult, RemoveZoneOutput, error) {
	if input.ID == "" {
		return nil, RemoveZoneOutput{}, fmt.Errorf("id is required")
	}

	zones, removed := RemoveZoneByID(h.store.GetInterestZones(), input.ID)
	if !removed {
		return nil, RemoveZoneOutput{}, fmt.Errorf("zone not found: %s", input.ID)
	}
	if err := h.store.UpdateInterestZones(ctx, zones); err != nil {
		return nil, RemoveZoneOutput{}, fmt.Errorf("failed to remove zone: %w", err)
	}
	return nil, RemoveZoneOutput{Success: true, Message: fmt.Sprintf("Removed zone: %s", input.ID)}, nil
}

// UpsertZone replaces the zone with the same id or appends it.
func UpsertZone(zones []models.InterestZone, zone models.InterestZone) []models.InterestZone {
	for i := range zones {
		if zones[i].ID == zone.ID {
			zones[i] = zone
			return zones
		}
	}
	return append(zones, zone)
}

// RemoveZoneByID drops the zone with the given id.
func RemoveZoneByID(zones []models.InterestZone, id string) ([]models.InterestZone, bool) {
	for i := range zones {
		if zones[i].ID == id {
			return append(zones[:i:i], zones[i+1:]...), true
		}
	}
	return zones, false
}

func zoneToOutput(z *models.InterestZone) ZoneOutput {
	return ZoneOutput{
		ID:         z.ID,
		Name:       z.Name,
		RadiusKm:   z.RadiusKm,
		Latitude:   z.Latitude,
		Longitude:  z.Longitude,
		Region:     z.Region,
		Population: z.Population,
	}
}

// ABOUTME: Zone coverage graph generation
// ABOUTME: Links each interest zone to the offices inside its radius as a DOT document
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
)

// GenerateZoneGraph renders zones and the offices they cover. Offices outside every
// zone are left out; zones without coordinates appear with no edges.
func GenerateZoneGraph(ctx context.Context, records []models.Record, zones []models.InterestZone) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetRankDir(cgraph.LRRank)

	nodes := make(map[string]*cgraph.Node)
	for _, z := range zones {
		zn, err := graph.CreateNodeByName("zone:" + z.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create zone node: %w", err)
		}
		zn.SetLabel(fmt.Sprintf("%s (%.0f km)", z.Name, z.RadiusKm))
		zn.SetShape(cgraph.EllipseShape)

		if !z.HasCoordinates() {
			continue
		}

		for i := range records {
			r := &records[i]
			if !r.HasCoordinates() {
				continue
			}
			d := filter.HaversineKm(r.Latitude, r.Longitude, z.Latitude, z.Longitude)
			if d > z.RadiusKm {
				continue
			}

			rn, ok := nodes[r.ID]
			if !ok {
				rn, err = graph.CreateNodeByName("record:" + r.ID)
				if err != nil {
					return "", fmt.Errorf("failed to create record node: %w", err)
				}
				rn.SetLabel(r.Name)
				rn.SetShape(cgraph.BoxShape)
				nodes[r.ID] = rn
			}

			edge, err := graph.CreateEdgeByName("", zn, rn)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(fmt.Sprintf("%.1f km", d))
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

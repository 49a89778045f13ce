// Package export serializes partitions as GeoJSON feature collections.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/geometry"
	"github.com/brgeotools/munimerge/internal/merge"
)

// Output file names, matching the artefacts consumers already ingest.
const (
	UnitsFileName   = "municipios_original.geojson"
	RegionsFileName = "municipios_merged.geojson"
)

type feature struct {
	Type       string          `json:"type"`
	Properties any             `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type unitProperties struct {
	MunicipalityID   string `json:"municipality_id"`
	MunicipalityName string `json:"municipality_name"`
	State            string `json:"state"`
	Population       int    `json:"population"`
}

type regionProperties struct {
	RegionID           string   `json:"region_id"`
	Population         int      `json:"population"`
	MemberCount        int      `json:"member_count"`
	Members            []string `json:"members"`
	States             []string `json:"states"`
	RepresentativeName string   `json:"representative_name"`
}

// WriteUnits writes the per-municipality view of a partition to
// UnitsFileName under dir and returns the written path.
func WriteUnits(dir string, units []*merge.Unit, enc geometry.Encoder) (string, error) {
	features := make([]feature, 0, len(units))
	for _, u := range units {
		geom, err := enc.EncodeGeoJSON(u.Geometry)
		if err != nil {
			return "", eris.Wrapf(err, "export: encode geometry for %s", u.ID)
		}
		features = append(features, feature{
			Type: "Feature",
			Properties: unitProperties{
				MunicipalityID:   u.ID,
				MunicipalityName: u.Name,
				State:            u.State,
				Population:       u.Population,
			},
			Geometry: geom,
		})
	}
	return writeCollection(dir, UnitsFileName, features)
}

// WriteRegions writes the merged-region view of a partition to
// RegionsFileName under dir and returns the written path.
func WriteRegions(dir string, regions []*merge.Region, enc geometry.Encoder) (string, error) {
	features := make([]feature, 0, len(regions))
	for _, r := range regions {
		geom, err := enc.EncodeGeoJSON(r.Geometry)
		if err != nil {
			return "", eris.Wrapf(err, "export: encode geometry for %s", r.ID)
		}
		features = append(features, feature{
			Type: "Feature",
			Properties: regionProperties{
				RegionID:           r.ID,
				Population:         r.Population,
				MemberCount:        len(r.Members),
				Members:            r.Members,
				States:             r.States,
				RepresentativeName: r.Name,
			},
			Geometry: geom,
		})
	}
	return writeCollection(dir, RegionsFileName, features)
}

func writeCollection(dir, name string, features []feature) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "export: create output dir %s", dir)
	}

	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(featureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "export: marshal %s", name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "export: write %s", path)
	}

	zap.L().Info("wrote feature collection",
		zap.String("component", "export"),
		zap.String("path", path),
		zap.Int("features", len(features)),
	)
	return path, nil
}

package ibge

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
)

// Attribute fields carried by the IBGE municipal mesh.
const (
	fieldCode  = "CD_MUN"
	fieldName  = "NM_MUN"
	fieldState = "SIGLA_UF"
)

// ParseMunicipalMesh reads the municipal-mesh shapefile and returns one
// Municipality per record, geometry encoded as WKB. Records with missing
// codes or unusable geometry are skipped and counted.
func ParseMunicipalMesh(shpPath string) ([]Municipality, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ibge: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	for _, required := range []string{fieldCode, fieldName, fieldState} {
		if _, ok := fieldIdx[required]; !ok {
			return nil, eris.Errorf("ibge: shapefile missing field %s", required)
		}
	}

	attr := func(idx int) string {
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var out []Municipality
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		code := attr(fieldIdx[fieldCode])
		if code == "" {
			skipped++
			continue
		}

		data, encErr := encodePolygonWKB(shape)
		if encErr != nil || data == nil {
			skipped++
			continue
		}

		out = append(out, Municipality{
			Code:  code,
			Name:  attr(fieldIdx[fieldName]),
			State: attr(fieldIdx[fieldState]),
			WKB:   data,
		})
	}

	if skipped > 0 {
		zap.L().Warn("skipped unusable mesh records",
			zap.String("component", "ibge.mesh"),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

// encodePolygonWKB converts a shapefile polygon to WKB bytes. Returns
// nil, nil for nil or non-polygon shapes.
func encodePolygonWKB(shape shp.Shape) ([]byte, error) {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil {
		return nil, nil
	}

	mp := polygonToMultiPolygon(p)
	if mp == nil {
		return nil, nil
	}

	data, err := wkb.Marshal(mp, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "ibge: encode WKB")
	}
	return data, nil
}

// polygonToMultiPolygon converts a shapefile Polygon, one polygon per ring
// part, into a geom.MultiPolygon. Shapefiles do not distinguish holes from
// shells structurally, so each part becomes its own shell and downstream
// validity repair resolves the nesting.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

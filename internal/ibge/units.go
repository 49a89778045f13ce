package ibge

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/geometry"
	"github.com/brgeotools/munimerge/internal/merge"
)

// GeometryDecoder turns mesh WKB into an engine geometry handle.
type GeometryDecoder interface {
	FromWKB(data []byte) (geometry.Geometry, error)
}

// BuildUnits joins boundary records with population figures into merge
// units. Municipalities absent from the population map default to 0 with a
// warning; the number of defaults applied is returned alongside the units.
func BuildUnits(munis []Municipality, population map[string]int, dec GeometryDecoder) ([]*merge.Unit, int, error) {
	log := zap.L().With(zap.String("component", "ibge.units"))

	units := make([]*merge.Unit, 0, len(munis))
	var defaulted int
	for _, m := range munis {
		pop, ok := population[m.Code]
		if !ok {
			log.Warn("no population estimate, defaulting to 0",
				zap.String("code", m.Code),
				zap.String("name", m.Name),
			)
			defaulted++
		}

		g, err := dec.FromWKB(m.WKB)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "ibge: decode geometry for %s", m.Code)
		}

		units = append(units, &merge.Unit{
			ID:         m.Code,
			Name:       m.Name,
			State:      m.State,
			Population: pop,
			Geometry:   g,
		})
	}

	if defaulted > 0 {
		log.Warn("population defaults applied", zap.Int("count", defaulted))
	}
	return units, defaulted, nil
}

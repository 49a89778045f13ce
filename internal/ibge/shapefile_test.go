package ibge

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// unitSquare returns a closed square ring offset by dx.
func unitSquare(dx float64) []shp.Point {
	return []shp.Point{
		{X: dx, Y: 0}, {X: dx, Y: 1}, {X: dx + 1, Y: 1}, {X: dx + 1, Y: 0}, {X: dx, Y: 0},
	}
}

// writeMeshShapefile writes a two-municipality mesh and returns the .shp path.
func writeMeshShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BR_Municipios_2020.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("CD_MUN", 7),
		shp.StringField("NM_MUN", 60),
		shp.StringField("SIGLA_UF", 2),
	}))

	type rec struct {
		code, name, state string
		points            []shp.Point
	}
	records := []rec{
		{"1100015", "Alta Floresta D'Oeste", "RO", unitSquare(0)},
		{"3550308", "São Paulo", "SP", unitSquare(1)},
	}
	for i, r := range records {
		w.Write(&shp.Polygon{
			NumParts:  1,
			NumPoints: int32(len(r.points)),
			Parts:     []int32{0},
			Points:    r.points,
		})
		require.NoError(t, w.WriteAttribute(i, 0, r.code))
		require.NoError(t, w.WriteAttribute(i, 1, r.name))
		require.NoError(t, w.WriteAttribute(i, 2, r.state))
	}
	w.Close()
	return path
}

func TestParseMunicipalMesh(t *testing.T) {
	path := writeMeshShapefile(t)

	munis, err := ParseMunicipalMesh(path)
	require.NoError(t, err)
	require.Len(t, munis, 2)

	assert.Equal(t, "1100015", munis[0].Code)
	assert.Equal(t, "Alta Floresta D'Oeste", munis[0].Name)
	assert.Equal(t, "RO", munis[0].State)
	assert.NotEmpty(t, munis[0].WKB)

	assert.Equal(t, "SP", munis[1].State)

	g, err := wkb.Unmarshal(munis[0].WKB)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.Bounds().Max(0), 1e-9)
}

func TestParseMunicipalMeshMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("OTHER", 10)}))
	w.Close()

	_, err = ParseMunicipalMesh(path)
	assert.Error(t, err)
}

func TestEncodePolygonWKB(t *testing.T) {
	data, err := encodePolygonWKB(&shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points:    unitSquare(0),
	})
	require.NoError(t, err)
	require.NotNil(t, data)

	g, err := wkb.Unmarshal(data)
	require.NoError(t, err)
	_, ok := g.(*geom.MultiPolygon)
	assert.True(t, ok)

	// Non-polygon and nil shapes are skipped, not errors.
	data, err = encodePolygonWKB(&shp.Point{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = encodePolygonWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = encodePolygonWKB(&shp.Polygon{})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestPolygonToMultiPolygonMultipart(t *testing.T) {
	points := append(unitSquare(0), unitSquare(5)...)
	mp := polygonToMultiPolygon(&shp.Polygon{
		NumParts:  2,
		NumPoints: int32(len(points)),
		Parts:     []int32{0, 5},
		Points:    points,
	})
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
}

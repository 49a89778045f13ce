package ibge

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgeotools/munimerge/internal/geometry"
)

type fakeDecoder struct {
	fail bool
}

func (d fakeDecoder) FromWKB(data []byte) (geometry.Geometry, error) {
	if d.fail {
		return nil, eris.New("decode failed")
	}
	return string(data), nil
}

func TestBuildUnits(t *testing.T) {
	munis := []Municipality{
		{Code: "1100015", Name: "Alta Floresta D'Oeste", State: "RO", WKB: []byte("g1")},
		{Code: "3550308", Name: "São Paulo", State: "SP", WKB: []byte("g2")},
		{Code: "4300001", Name: "Lagoa Mirim", State: "RS", WKB: []byte("g3")},
	}
	population := map[string]int{
		"1100015": 22516,
		"3550308": 12396372,
	}

	units, defaulted, err := BuildUnits(munis, population, fakeDecoder{})
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, 1, defaulted)

	assert.Equal(t, 22516, units[0].Population)
	assert.Equal(t, "RO", units[0].State)
	assert.Equal(t, "g1", units[0].Geometry)

	// The unit with no estimate defaults to 0 but is still included.
	assert.Equal(t, "4300001", units[2].ID)
	assert.Equal(t, 0, units[2].Population)
}

func TestBuildUnitsDecodeError(t *testing.T) {
	munis := []Municipality{{Code: "1100015", WKB: []byte("g1")}}

	_, _, err := BuildUnits(munis, map[string]int{}, fakeDecoder{fail: true})
	assert.Error(t, err)
}

package ibge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgeotools/munimerge/internal/fetcher"
)

const populationFixture = `[
  {
    "id": "9324",
    "variavel": "População residente estimada",
    "unidade": "Pessoas",
    "resultados": [
      {
        "classificacoes": [],
        "series": [
          {
            "localidade": {"id": "3550308", "nome": "São Paulo - SP"},
            "serie": {"2021": "12396372"}
          },
          {
            "localidade": {"id": "1100015", "nome": "Alta Floresta D'Oeste - RO"},
            "serie": {"2021": "22516"}
          },
          {
            "localidade": {"id": "4300001", "nome": "Lagoa Mirim - RS"},
            "serie": {"2021": "..."}
          }
        ]
      }
    ]
  }
]`

func TestPopulationClientFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(populationFixture))
	}))
	defer srv.Close()

	c := NewPopulationClient(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), PopulationOptions{
		BaseURL: srv.URL,
	})

	pop, err := c.Fetch(context.Background(), 2021)
	require.NoError(t, err)

	assert.Equal(t, "/6579/periodos/2021/variaveis/9324", gotPath)
	assert.Equal(t, 12396372, pop["3550308"])
	assert.Equal(t, 22516, pop["1100015"])

	// Suppressed figures are skipped, not zeroed.
	_, ok := pop["4300001"]
	assert.False(t, ok)
	assert.Len(t, pop, 2)
}

func TestPopulationClientFetchBadStructure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewPopulationClient(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), PopulationOptions{
		BaseURL: srv.URL,
	})

	_, err := c.Fetch(context.Background(), 2021)
	assert.Error(t, err)
}

func TestPopulationClientURL(t *testing.T) {
	c := NewPopulationClient(nil, PopulationOptions{})
	assert.Equal(t,
		"https://servicodados.ibge.gov.br/api/v3/agregados/6579/periodos/2021/variaveis/9324?localidades=N6[all]",
		c.URL(2021),
	)
}

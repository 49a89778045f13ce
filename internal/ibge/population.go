package ibge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/fetcher"
)

// DefaultPopulationBaseURL is the IBGE agregados API root.
const DefaultPopulationBaseURL = "https://servicodados.ibge.gov.br/api/v3/agregados"

// PopulationClient fetches municipal population estimates from the IBGE
// agregados API.
type PopulationClient struct {
	fetcher     fetcher.Fetcher
	baseURL     string
	aggregateID int
	variableID  int
	log         *zap.Logger
}

// PopulationOptions configures a PopulationClient. Zero values fall back to
// the published IBGE defaults.
type PopulationOptions struct {
	BaseURL     string
	AggregateID int
	VariableID  int
}

func NewPopulationClient(f fetcher.Fetcher, opts PopulationOptions) *PopulationClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultPopulationBaseURL
	}
	if opts.AggregateID == 0 {
		opts.AggregateID = DefaultPopulationAggregateID
	}
	if opts.VariableID == 0 {
		opts.VariableID = DefaultPopulationVariableID
	}
	return &PopulationClient{
		fetcher:     f,
		baseURL:     opts.BaseURL,
		aggregateID: opts.AggregateID,
		variableID:  opts.VariableID,
		log:         zap.L().With(zap.String("component", "ibge.population")),
	}
}

// agregados API response: one entry per variable, each holding result groups
// whose series are keyed by locality.
type populationResponse []struct {
	Resultados []struct {
		Series []struct {
			Localidade struct {
				ID string `json:"id"`
			} `json:"localidade"`
			Serie map[string]string `json:"serie"`
		} `json:"series"`
	} `json:"resultados"`
}

// URL builds the all-municipalities query for the given year.
func (c *PopulationClient) URL(year int) string {
	return fmt.Sprintf("%s/%d/periodos/%d/variaveis/%d?localidades=N6[all]",
		c.baseURL, c.aggregateID, year, c.variableID)
}

// Fetch downloads the estimate series for year and returns population keyed
// by 7-digit municipality code. Non-numeric series values (suppressed or
// unavailable figures) are warned and skipped.
func (c *PopulationClient) Fetch(ctx context.Context, year int) (map[string]int, error) {
	url := c.URL(year)
	c.log.Info("fetching population estimates", zap.Int("year", year), zap.String("url", url))

	body, err := c.fetcher.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "ibge: fetch population %d", year)
	}
	defer body.Close()

	var resp populationResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "ibge: decode population response")
	}
	if len(resp) == 0 || len(resp[0].Resultados) == 0 {
		return nil, eris.New("ibge: unexpected population response structure")
	}

	period := strconv.Itoa(year)
	population := make(map[string]int)
	for _, s := range resp[0].Resultados[0].Series {
		code := s.Localidade.ID
		if code == "" {
			continue
		}
		raw, ok := s.Serie[period]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.log.Warn("ignoring non-numeric population value",
				zap.String("code", code),
				zap.String("value", raw),
			)
			continue
		}
		population[code] = n
	}

	c.log.Info("loaded population estimates", zap.Int("municipalities", len(population)))
	return population, nil
}

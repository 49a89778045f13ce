package ibge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/fetcher"
)

// estimateColumns holds the column indexes located in the header row of an
// IBGE estimate spreadsheet.
type estimateColumns struct {
	codUF      int
	codMunicip int
	population int
}

// ParseEstimateXLSX reads a published IBGE population-estimate spreadsheet
// and returns population keyed by 7-digit municipality code (state code +
// 5-digit municipal code). Rows with blank or non-numeric codes (titles,
// footnotes) are skipped; population cells with footnote markers such as
// "30.319(2)" are cleaned before parsing.
func ParseEstimateXLSX(path string) (map[string]int, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "ibge: read estimate spreadsheet")
	}

	log := zap.L().With(zap.String("component", "ibge.estimates"))

	headerIdx := -1
	var cols estimateColumns
	for i, row := range rows {
		if c, ok := detectEstimateHeader(row); ok {
			headerIdx = i
			cols = c
			break
		}
	}
	if headerIdx < 0 {
		return nil, eris.Errorf("ibge: estimate header row not found in %s", path)
	}

	population := make(map[string]int)
	var skipped int
	for _, row := range rows[headerIdx+1:] {
		if len(row) <= cols.population {
			continue
		}
		ufCode, err := strconv.Atoi(strings.TrimSpace(row[cols.codUF]))
		if err != nil {
			continue
		}
		munCode, err := strconv.Atoi(strings.TrimSpace(row[cols.codMunicip]))
		if err != nil {
			continue
		}
		code := fmt.Sprintf("%02d%05d", ufCode, munCode)

		pop, err := parseEstimateValue(row[cols.population])
		if err != nil {
			log.Warn("ignoring non-numeric population cell",
				zap.String("code", code),
				zap.String("value", row[cols.population]),
			)
			skipped++
			continue
		}
		population[code] = pop
	}

	log.Info("parsed estimate spreadsheet",
		zap.String("path", path),
		zap.Int("municipalities", len(population)),
		zap.Int("skipped", skipped),
	)
	return population, nil
}

// detectEstimateHeader reports whether row is the column header of the
// municipal estimates sheet, matching labels accent-insensitively.
func detectEstimateHeader(row []string) (estimateColumns, bool) {
	cols := estimateColumns{codUF: -1, codMunicip: -1, population: -1}
	for i, cell := range row {
		switch label := normalizeLabel(cell); {
		case strings.HasPrefix(label, "COD. UF") || strings.HasPrefix(label, "COD.UF"):
			cols.codUF = i
		case strings.HasPrefix(label, "COD. MUNIC") || strings.HasPrefix(label, "COD.MUNIC"):
			cols.codMunicip = i
		case strings.Contains(label, "POPULACAO"):
			cols.population = i
		}
	}
	ok := cols.codUF >= 0 && cols.codMunicip >= 0 && cols.population >= 0
	return cols, ok
}

// parseEstimateValue parses a population cell, dropping thousands separators
// and trailing footnote markers like "(2)".
func parseEstimateValue(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	if i := strings.IndexByte(v, '('); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	v = strings.ReplaceAll(v, ".", "")
	v = strings.ReplaceAll(v, " ", "")
	if v == "" {
		return 0, eris.New("ibge: empty population cell")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Wrapf(err, "ibge: parse population %q", raw)
	}
	return n, nil
}

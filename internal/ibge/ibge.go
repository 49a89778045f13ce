// Package ibge acquires the two IBGE datasets the merge pipeline consumes:
// municipal population estimates (agregados API or the published estimate
// spreadsheet) and the municipal boundary mesh (shapefile via HTTP or FTP).
package ibge

const (
	// DefaultPopulationAggregateID is the IBGE agregados table for municipal
	// population estimates.
	DefaultPopulationAggregateID = 6579

	// DefaultPopulationVariableID is the estimated-resident-population
	// variable within that table.
	DefaultPopulationVariableID = 9324

	// DefaultPopulationYear matches the most recent estimate series the
	// pipeline was validated against.
	DefaultPopulationYear = 2021

	// DefaultBoundariesYear selects the municipal mesh vintage.
	DefaultBoundariesYear = 2020
)

// Municipality is one record from the boundary mesh, geometry as WKB.
type Municipality struct {
	Code  string
	Name  string
	State string
	WKB   []byte
}

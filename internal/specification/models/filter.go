package models

import (
	"strings"

	"specregistry/pkg/pagination"
)

// SortField names a sortable listing column. Parsing is case-insensitive;
// anything unrecognized falls back to the default sort (modified date,
// descending).
type SortField string

const (
	SortByName       SortField = "specificationName"
	SortByPurpose    SortField = "purpose"
	SortBySector     SortField = "sector"
	SortByCountry    SortField = "country"
	SortByType       SortField = "specificationType"
	SortByModified   SortField = "modifiedDate"
	SortByCreated    SortField = "createdDate"
	SortByIdentifier SortField = "specificationIdentifier"
)

var sortFields = map[string]SortField{
	"specificationname":       SortByName,
	"purpose":                 SortByPurpose,
	"sector":                  SortBySector,
	"country":                 SortByCountry,
	"specificationtype":       SortByType,
	"modifieddate":            SortByModified,
	"createddate":             SortByCreated,
	"specificationidentifier": SortByIdentifier,
}

// ParseSortField resolves a free-form sort name. The second return is false
// for unrecognized names, in which case callers use the default sort.
func ParseSortField(s string) (SortField, bool) {
	f, ok := sortFields[strings.ToLower(strings.TrimSpace(s))]
	return f, ok
}

// ListFilter captures everything a specification listing request can narrow
// or order by. Zero values mean "no constraint".
type ListFilter struct {
	Page pagination.Params

	// SearchTerm matches case-insensitively as a substring of the name,
	// purpose, or sector.
	SearchTerm string

	// SortBy empty (or unparsed) means the default: modified date descending.
	SortBy    SortField
	SortOrder pagination.SortOrder

	// Exact, case-insensitive matches.
	SpecificationType string
	Sector            string
	Country           string

	// Child-membership filters: case-insensitive substring match against the
	// respective child collection's business-term ID. Each narrows the
	// listing to parents having at least one matching child.
	CoreBusinessTermID      string
	ExtensionBusinessTermID string
	AddReqBusinessTermID    string
}

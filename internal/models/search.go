package models

// SearchParams captures the inputs handed to a source adapter for one call.
type SearchParams struct {
	Query    string
	Location string
	Limit    int
}

// Filter narrows a record set. Empty slices match everything.
type Filter struct {
	Query         string
	Location      string
	Sources       []string
	Categories    []Category
	Regions       []Region
	ContractTypes []ContractType
	Statuses      []Status
	Bookmarked    *bool
	Ignored       *bool
	Limit         int
}

package ports

import "block-manifests/internal/types"

// StyleCollectorPort is the page-wide collection the aggregated CSS
// strategy appends to. Flush returns the records and empties the
// collection.
type StyleCollectorPort interface {
	Append(record types.StyleRecord)
	Flush() []types.StyleRecord
	Len() int
}

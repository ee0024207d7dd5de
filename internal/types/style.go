package types

// Breakpoint is a named pixel width from globalVariables.breakpoints.
type Breakpoint struct {
	Name  string
	Value int
}

type BucketType string

const (
	BucketMin BucketType = "min"
	BucketMax BucketType = "max"
)

// DefaultBucket names the unconditional bucket of each direction.
const DefaultBucket = "default"

// Bucket accumulates declarations for one breakpoint and direction. The
// default bucket has Value 0 and renders without a media query.
type Bucket struct {
	Type         BucketType
	Name         string
	Value        int
	Declarations []string
}

func (b Bucket) IsDefault() bool {
	return b.Name == DefaultBucket
}

// BucketSet holds the min list (default, then ascending widths) and the
// max list (default, then descending widths). MinDefault and MaxDefault
// name the breakpoints the default buckets stand in for.
type BucketSet struct {
	Min        []Bucket
	Max        []Bucket
	MinDefault string
	MaxDefault string
}

// DefaultFor returns the breakpoint name replaced by the default bucket of
// the given direction.
func (s BucketSet) DefaultFor(kind BucketType) string {
	if kind == BucketMax {
		return s.MaxDefault
	}
	return s.MinDefault
}

// Append adds text to the declarations of the bucket at index i of the
// given direction.
func (s *BucketSet) Append(kind BucketType, i int, text string) {
	if kind == BucketMax {
		s.Max[i].Declarations = append(s.Max[i].Declarations, text)
		return
	}
	s.Min[i].Declarations = append(s.Min[i].Declarations, text)
}

// Ordered returns min buckets followed by max buckets, the emission order.
func (s BucketSet) Ordered() []Bucket {
	out := make([]Bucket, 0, len(s.Min)+len(s.Max))
	out = append(out, s.Min...)
	return append(out, s.Max...)
}

// Find returns the index of the bucket with the given type and name inside
// the list for that type.
func (s BucketSet) Find(kind BucketType, name string) (int, bool) {
	list := s.Min
	if kind == BucketMax {
		list = s.Max
	}
	for i, bucket := range list {
		if bucket.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Declaration is one custom property produced by a variable directive.
type Declaration struct {
	Name  string
	Value string
}

// VariableEntry is one directive item: which bucket receives which
// declarations.
type VariableEntry struct {
	Breakpoint   string
	Inverse      bool
	Declarations []Declaration
}

// VariableDirective is the parsed form of variables.<attribute>. When
// ByValue is nil the Entries apply whatever the attribute value is.
type VariableDirective struct {
	Attribute string
	Entries   []VariableEntry
	ByValue   map[string][]VariableEntry
}

// StyleDeclaration is one bucketed declaration inside a StyleRecord.
type StyleDeclaration struct {
	Type  BucketType
	Name  string
	Value int
	Text  string
}

// StyleRecord is what the aggregated strategy collects per rendered
// instance instead of emitting CSS immediately.
type StyleRecord struct {
	Selector     string
	UniqueID     string
	Declarations []StyleDeclaration
	Manual       []string
}

// StyleOutput is the result of one generator call. Deferred is true when
// the declarations went to the style collection instead of CSS.
type StyleOutput struct {
	CSS      string
	Deferred bool
}

// Attributes are the runtime attribute values of one rendered instance.
type Attributes map[string]Value

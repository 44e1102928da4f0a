package models

// Condition is a node in a filter tree. A node is either a boolean group (And/Or)
// or a leaf comparing Field against Value with Op.
type Condition struct {
	Field string      `json:"field,omitempty"`
	Op    string      `json:"op,omitempty"`
	Value interface{} `json:"value,omitempty"`
	And   []Condition `json:"and,omitempty"`
	Or    []Condition `json:"or,omitempty"`
}

const (
	OpEquals   = "equals"
	OpContains = "contains"
	OpGte      = "gte"
	OpLte      = "lte"
	OpIn       = "in"
)

func (c Condition) IsGroup() bool {
	return len(c.And) > 0 || len(c.Or) > 0
}

func (c Condition) IsZero() bool {
	return !c.IsGroup() && c.Field == "" && c.Op == ""
}

package domain

// ResultSet is the raw output of plan execution: one record slice per
// collection plus the total count. Transient, one per request.
type ResultSet struct {
	Collections map[string][]Record
	Total       int
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{Collections: make(map[string][]Record)}
}

// Add appends records under a collection and updates the total.
func (rs *ResultSet) Add(collection string, records []Record) {
	rs.Collections[collection] = records
	rs.Total += len(records)
}

// CollectionAnalysis summarizes one collection after the analyze operator.
type CollectionAnalysis struct {
	Count         int            `json:"count"`
	Categories    map[string]int `json:"categories,omitempty"`
	AverageRating float64        `json:"averageRating,omitempty"`
}

// ProcessedResultSet extends a ResultSet with pipeline products. Records
// inside may carry ephemeral fields (scores, match info, merge tags) on
// copies; the originals returned by the store are never touched.
type ProcessedResultSet struct {
	Collections  map[string][]Record
	Total        int
	Aggregations map[string]any
	Merged       []Record
	Analysis     map[string]CollectionAnalysis
	Competitive  *CompetitiveReport
}

// FromRaw seeds a processed set from the executor output. Collection slices
// are shared with the raw set until an operator replaces them; operators
// must only attach records via Record.Copy.
func FromRaw(rs *ResultSet) *ProcessedResultSet {
	out := &ProcessedResultSet{
		Collections:  make(map[string][]Record, len(rs.Collections)),
		Total:        rs.Total,
		Aggregations: make(map[string]any),
	}
	for name, records := range rs.Collections {
		out.Collections[name] = records
	}
	return out
}

// Recount recomputes Total from the per-collection slices. Called after
// operators that drop or replace records.
func (p *ProcessedResultSet) Recount() {
	total := 0
	for _, records := range p.Collections {
		total += len(records)
	}
	p.Total = total
}

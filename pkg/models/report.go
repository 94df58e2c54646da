package models

// Outcome of processing one source item
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// ItemResult is one row of a batch report
type ItemResult struct {
	ID      string  `json:"id"`
	Output  string  `json:"output,omitempty"`
	Outcome Outcome `json:"outcome"`
	Kind    string  `json:"kind,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Hash    string  `json:"hash,omitempty"`
}

// Duplicate lists outputs whose frames look the same
type Duplicate struct {
	Hash  string   `json:"hash"`
	Items []string `json:"items"`
}

// Report summarizes a batch run
type Report struct {
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Duration   string       `json:"duration"`
	Items      []ItemResult `json:"items"`
	Duplicates []Duplicate  `json:"duplicates,omitempty"`
}

// Problems returns the skipped and failed rows
func (r Report) Problems() []ItemResult {
	var out []ItemResult
	for _, item := range r.Items {
		if item.Outcome != OutcomeSucceeded {
			out = append(out, item)
		}
	}
	return out
}

package models

import (
	"bytes"
	"encoding/json"
)

// QueryRequest is the body of POST /api/query.
// Query holds the raw JSON value so that an absent field, null and
// non-string values reach validation instead of failing the decode.
type QueryRequest struct {
	Query json.RawMessage `json:"query"`
}

// NewQueryRequest builds a request carrying q as a JSON string.
func NewQueryRequest(q string) *QueryRequest {
	raw, _ := json.Marshal(q)
	return &QueryRequest{Query: raw}
}

// QueryText returns the query when it is a JSON string.
func (r *QueryRequest) QueryText() (string, bool) {
	raw := bytes.TrimSpace(r.Query)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Result is one upstream record, kept byte-for-byte so fields the relay
// does not know about survive the round trip.
type Result = json.RawMessage

// Scope is the fixed part of every discovery query.
type Scope struct {
	EnvironmentID string `yaml:"environment_id"`
	CollectionID  string `yaml:"collection_id"`
	Version       string `yaml:"version"`
	Count         int    `yaml:"count"`
}

// QueryResult holds the records returned for one query.
type QueryResult struct {
	Results       []Result
	MatchingCount int
}

// Envelope is the relay's response shape: either {"err": true} or
// {"err": false, "results": [...]}.
type Envelope struct {
	Err     bool
	Results []Result
}

// SuccessEnvelope wraps results in the success shape.
func SuccessEnvelope(results []Result) Envelope {
	return Envelope{Results: results}
}

// ErrorEnvelope returns the single undifferentiated error shape.
func ErrorEnvelope() Envelope {
	return Envelope{Err: true}
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Err {
		return []byte(`{"err":true}`), nil
	}
	results := e.Results
	if results == nil {
		results = []Result{}
	}
	return json.Marshal(struct {
		Err     bool     `json:"err"`
		Results []Result `json:"results"`
	}{false, results})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Err     bool     `json:"err"`
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Err = raw.Err
	e.Results = raw.Results
	return nil
}

// ResultSummary is the typed view of a Result used for display.
type ResultSummary struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	CrawlDate string `json:"crawl_date"`
}

// Date returns the day part of the crawl timestamp.
func (s ResultSummary) Date() string {
	if len(s.CrawlDate) <= 10 {
		return s.CrawlDate
	}
	return s.CrawlDate[:10]
}

// Summarize decodes the displayable fields of r.
func Summarize(r Result) (ResultSummary, error) {
	var s ResultSummary
	if err := json.Unmarshal(r, &s); err != nil {
		return ResultSummary{}, err
	}
	return s, nil
}

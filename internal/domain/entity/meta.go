package entity

// MediaType selects between the two Stremio catalog kinds.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeSeries
}

// Meta is a fully resolved, client-renderable recommendation.
// A Meta without an IMDB id never reaches a response; the pipeline
// filters those out before caching.
type Meta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        MediaType `json:"type"`
	Poster      *string   `json:"poster"`
	PosterShape string    `json:"posterShape"`
	Year        string    `json:"year,omitempty"`
}

// Resolved reports whether the record carries a canonical identifier.
func (m Meta) Resolved() bool {
	return m.ID != ""
}

// Candidate is a single LLM-proposed title before metadata resolution.
// Candidates are transient; only their resolved Meta is ever cached.
type Candidate struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Recommendation is the output of one LLM call: the candidate list plus
// the language the model answered in, which steers metadata search locale.
type Recommendation struct {
	Candidates []Candidate `json:"recommendations"`
	Language   string      `json:"lang"`
}

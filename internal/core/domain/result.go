package domain

import "time"

// Tier names one retrieval strategy applied to one entity type.
type Tier string

const (
	TierFullText   Tier = "fulltext"
	TierPattern    Tier = "pattern"
	TierSimilarity Tier = "similarity"
)

// TierState distinguishes an empty-but-successful tier call from one that
// was skipped or absorbed a failure.
type TierState string

const (
	TierOK          TierState = "ok"
	TierUnavailable TierState = "unavailable"
	TierFailed      TierState = "failed"
)

// TierOutcome is the explicit result of one tier call for one entity type.
type TierOutcome struct {
	Tier       Tier
	State      TierState
	Candidates []Candidate
	Err        error
}

// GeoPoint is an optional record location.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate is a raw retrieval hit for one entity type, before scoring.
// ID and Type together identify the record across tiers.
type Candidate struct {
	ID          string
	Type        EntityType
	Title       string
	Description string
	// Canonical is the type's exact-match field (vehicle make,
	// organization or source domain). Empty when the type has none.
	Canonical string
	ImageURL  string
	Location  *GeoPoint
	// RawRank is the engine-provided rank, present only for full-text hits.
	RawRank *float64
	// ParentID links a media record to its owning vehicle.
	ParentID  string
	CreatedAt time.Time
}

// ScoredResult is a Candidate plus its final relevance score and an
// explanatory metadata bag. Immutable once produced by the scorer.
type ScoredResult struct {
	ID             string         `json:"id"`
	Type           EntityType     `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	RelevanceScore float64        `json:"relevance_score"`
	Location       *GeoPoint      `json:"location,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Citation references one result by entity type and identifier.
type Citation struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}

// Answer is the short synthesized response with citations into the results.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Debug reports which tiers and intents fired. Observability only; it must
// never influence ranking.
type Debug struct {
	FullText     map[EntityType]bool `json:"full_text,omitempty"`
	FuzzyWidened []EntityType        `json:"fuzzy_widened,omitempty"`
	MediaBias    bool                `json:"media_bias"`
	Recency      RecencyIntent       `json:"recency,omitempty"`
}

// Response is the assembled search result. Built once per request.
type Response struct {
	Results       []ScoredResult                `json:"results"`
	Sections      map[EntityType][]ScoredResult `json:"sections"`
	SearchSummary string                        `json:"search_summary"`
	Answer        *Answer                       `json:"answer,omitempty"`
	Debug         *Debug                        `json:"debug,omitempty"`
}

// SearchEvent is the analytics payload published after a served query.
type SearchEvent struct {
	Query       string        `json:"query"`
	MediaBias   bool          `json:"media_bias"`
	Recency     RecencyIntent `json:"recency,omitempty"`
	ResultCount int           `json:"result_count"`
}

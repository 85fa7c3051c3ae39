package domain

// RecencyIntent orders the media section by timestamp instead of score.
type RecencyIntent string

const (
	RecencyNone   RecencyIntent = ""
	RecencyOldest RecencyIntent = "oldest"
	RecencyNewest RecencyIntent = "newest"
)

const (
	DefaultLimit = 20
	MinLimit     = 1
	MaxLimit     = 100
)

// Query is the normalized, request-scoped form of a raw search string.
// It is built once by the normalizer and never mutated afterwards.
type Query struct {
	Raw        string
	Normalized string
	// Tokens are the lowercased whitespace-split terms of length >= 2,
	// deduplicated in first-seen order.
	Tokens []string
	// Expanded is Tokens plus domain synonym expansions. Expansion only
	// ever adds tokens.
	Expanded  []string
	Limit     int
	MediaBias bool
	Recency   RecencyIntent
}

// Empty reports whether the query carries no searchable terms.
func (q Query) Empty() bool {
	return len(q.Tokens) == 0
}

// ClampLimit coerces a requested limit into [MinLimit, MaxLimit],
// substituting DefaultLimit when unset.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

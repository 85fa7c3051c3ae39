package usecase

import (
	"strings"

	"github.com/openclassics/archive-search/internal/core/domain"
)

// overlapBonusWeight rewards literal token matches on top of an
// engine-provided rank, so exact hits stay ahead of rank-only hits.
// overlapOnlyWeight scales rank-less candidates below 1 so the fixed
// boosts stay discriminative once the clamp applies.
const (
	overlapBonusWeight = 0.25
	overlapOnlyWeight  = 0.7
)

// scoreBatch turns one tier's raw candidates into scored results. Rank
// normalization uses the maximum raw rank observed within the batch, which
// is always per entity type. The formula is monotonic in both raw rank and
// overlap count, and deterministic for identical inputs.
func scoreBatch(q domain.Query, tier domain.Tier, candidates []domain.Candidate) []domain.ScoredResult {
	if len(candidates) == 0 {
		return nil
	}

	maxRank := 0.0
	for _, c := range candidates {
		if c.RawRank != nil && *c.RawRank > maxRank {
			maxRank = *c.RawRank
		}
	}
	if maxRank <= 0 {
		maxRank = 1
	}

	out := make([]domain.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		overlap, matched := termOverlap(q.Expanded, c.Title, c.Description)

		meta := map[string]any{"tier": string(tier)}
		var score float64
		if c.RawRank != nil {
			score = *c.RawRank/maxRank + overlapBonusWeight*overlap
			meta["raw_rank"] = *c.RawRank
		} else {
			score = overlapOnlyWeight * overlap
		}

		cfg := domain.ConfigFor(c.Type)
		if cfg.CanonicalBoost > 0 && exactTokenMatch(q.Expanded, c.Canonical) {
			score += cfg.CanonicalBoost
			meta["exact_match"] = strings.ToLower(strings.TrimSpace(c.Canonical))
		}
		score += cfg.BaseBoost
		if c.ParentID != "" {
			meta["parent_id"] = c.ParentID
		}

		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		if len(matched) > 0 {
			meta["matched_tokens"] = matched
		}

		out = append(out, domain.ScoredResult{
			ID:             c.ID,
			Type:           c.Type,
			Title:          c.Title,
			Description:    c.Description,
			Metadata:       meta,
			RelevanceScore: score,
			Location:       c.Location,
			ImageURL:       c.ImageURL,
			CreatedAt:      c.CreatedAt,
		})
	}
	return out
}

// termOverlap is the share of expanded tokens found as substrings of the
// candidate's title and description, in [0,1].
func termOverlap(tokens []string, title, description string) (float64, []string) {
	if len(tokens) == 0 {
		return 0, nil
	}
	haystack := strings.ToLower(title + " " + description)
	var matched []string
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			matched = append(matched, token)
		}
	}
	return float64(len(matched)) / float64(len(tokens)), matched
}

func exactTokenMatch(tokens []string, canonical string) bool {
	canonical = strings.ToLower(strings.TrimSpace(canonical))
	if canonical == "" {
		return false
	}
	for _, token := range tokens {
		if token == canonical {
			return true
		}
	}
	return false
}

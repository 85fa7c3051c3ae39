package usecase

import (
	"strings"

	"github.com/openclassics/archive-search/internal/core/domain"
)

var mediaVocabulary = map[string]struct{}{
	"image":    {},
	"images":   {},
	"photo":    {},
	"photos":   {},
	"picture":  {},
	"pictures": {},
	"pic":      {},
	"pics":     {},
}

var oldestVocabulary = map[string]struct{}{
	"oldest":   {},
	"earliest": {},
}

var newestVocabulary = map[string]struct{}{
	"newest": {},
	"latest": {},
	"recent": {},
}

// NormalizeQuery builds the request-scoped Query value from a raw search
// string: lowercase tokenization, synonym expansion and intent detection.
// Expansion only ever adds tokens.
func NormalizeQuery(raw string, limit int, synonyms map[string][]string) domain.Query {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	tokens := tokenize(normalized)

	expanded := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	add := func(token string) {
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		expanded = append(expanded, token)
	}
	for _, token := range tokens {
		add(token)
	}
	for _, token := range tokens {
		for _, syn := range synonyms[token] {
			syn = strings.ToLower(strings.TrimSpace(syn))
			if len(syn) >= 2 {
				add(syn)
			}
		}
	}

	return domain.Query{
		Raw:        raw,
		Normalized: normalized,
		Tokens:     tokens,
		Expanded:   expanded,
		Limit:      domain.ClampLimit(limit),
		MediaBias:  detectMediaBias(tokens),
		Recency:    detectRecency(tokens),
	}
}

func tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}

func detectMediaBias(tokens []string) bool {
	for _, token := range tokens {
		if _, ok := mediaVocabulary[token]; ok {
			return true
		}
	}
	return false
}

// detectRecency returns the recency intent. Conflicting signals cancel out:
// a query naming both oldest and newest keeps the default scoring order.
func detectRecency(tokens []string) domain.RecencyIntent {
	var hasOldest, hasNewest bool
	for _, token := range tokens {
		if _, ok := oldestVocabulary[token]; ok {
			hasOldest = true
		}
		if _, ok := newestVocabulary[token]; ok {
			hasNewest = true
		}
	}
	switch {
	case hasOldest && hasNewest:
		return domain.RecencyNone
	case hasOldest:
		return domain.RecencyOldest
	case hasNewest:
		return domain.RecencyNewest
	default:
		return domain.RecencyNone
	}
}

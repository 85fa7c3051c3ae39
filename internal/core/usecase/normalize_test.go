package usecase

import (
	"testing"

	"github.com/openclassics/archive-search/internal/core/domain"
)

var testSynonyms = map[string][]string{
	"porsche": {"911", "carrera", "gt3"},
}

func TestNormalizeQueryTokenizesAndDeduplicates(t *testing.T) {
	q := NormalizeQuery("  Porsche 911 a Porsche  ", 0, testSynonyms)

	if q.Normalized != "porsche 911 a porsche" {
		t.Fatalf("unexpected normalized text %q", q.Normalized)
	}
	want := []string{"porsche", "911"}
	if len(q.Tokens) != len(want) {
		t.Fatalf("expected tokens %v, got %v", want, q.Tokens)
	}
	for i, token := range want {
		if q.Tokens[i] != token {
			t.Fatalf("expected tokens %v, got %v", want, q.Tokens)
		}
	}
}

func TestNormalizeQueryExpandsSynonymsWithoutRemoving(t *testing.T) {
	q := NormalizeQuery("porsche coupe", 0, testSynonyms)

	want := []string{"porsche", "coupe", "911", "carrera", "gt3"}
	if len(q.Expanded) != len(want) {
		t.Fatalf("expected expanded %v, got %v", want, q.Expanded)
	}
	for i, token := range want {
		if q.Expanded[i] != token {
			t.Fatalf("expected expanded %v, got %v", want, q.Expanded)
		}
	}
}

func TestNormalizeQueryDetectsMediaBias(t *testing.T) {
	q := NormalizeQuery("images of 1970 Porsche 911", 0, testSynonyms)
	if !q.MediaBias {
		t.Fatalf("expected media bias for image query")
	}
	if q.Recency != domain.RecencyNone {
		t.Fatalf("expected no recency intent, got %q", q.Recency)
	}
}

func TestNormalizeQueryDetectsOldestIntent(t *testing.T) {
	q := NormalizeQuery("oldest Porsche listings", 0, testSynonyms)
	if q.Recency != domain.RecencyOldest {
		t.Fatalf("expected oldest intent, got %q", q.Recency)
	}
	if q.MediaBias {
		t.Fatalf("expected no media bias")
	}
}

func TestNormalizeQueryConflictingRecencyCancelsOut(t *testing.T) {
	q := NormalizeQuery("newest oldest Porsche", 0, testSynonyms)
	if q.Recency != domain.RecencyNone {
		t.Fatalf("expected conflicting recency tokens to cancel, got %q", q.Recency)
	}
}

func TestNormalizeQueryClampsLimit(t *testing.T) {
	if q := NormalizeQuery("porsche", 0, nil); q.Limit != domain.DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", domain.DefaultLimit, q.Limit)
	}
	if q := NormalizeQuery("porsche", -3, nil); q.Limit != domain.MinLimit {
		t.Fatalf("expected limit clamped to %d, got %d", domain.MinLimit, q.Limit)
	}
	if q := NormalizeQuery("porsche", 500, nil); q.Limit != domain.MaxLimit {
		t.Fatalf("expected limit clamped to %d, got %d", domain.MaxLimit, q.Limit)
	}
}

func TestNormalizeQueryEmptyInput(t *testing.T) {
	q := NormalizeQuery("   ", 10, testSynonyms)
	if !q.Empty() {
		t.Fatalf("expected whitespace query to be empty")
	}
}

func TestNormalizeQueryDropsShortTokens(t *testing.T) {
	q := NormalizeQuery("a 911 x", 0, nil)
	if len(q.Tokens) != 1 || q.Tokens[0] != "911" {
		t.Fatalf("expected only token 911, got %v", q.Tokens)
	}
}

package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openclassics/archive-search/internal/core/domain"
)

const (
	emptyQuerySummary = "Enter a search term to explore the archive."
	maxCitations      = 6
)

// assembleResponse buckets scored candidates into per-type sections, builds
// the flat ranked list according to the media-bias intent and derives the
// summary, answer and citations.
func assembleResponse(q domain.Query, byType map[domain.EntityType][]domain.ScoredResult, debug *domain.Debug) *domain.Response {
	sections := make(map[domain.EntityType][]domain.ScoredResult, len(domain.AllTypes()))
	for _, t := range domain.AllTypes() {
		section := append(make([]domain.ScoredResult, 0, len(byType[t])), byType[t]...)
		sortSection(q, t, section)
		if sectionCap := domain.ConfigFor(t).SectionCap; len(section) > sectionCap {
			section = section[:sectionCap]
		}
		sections[t] = section
	}

	flat := composeFlatList(q, sections)

	resp := &domain.Response{
		Results:       flat,
		Sections:      sections,
		SearchSummary: summaryLine(q, len(flat)),
		Debug:         debug,
	}
	if len(flat) > 0 {
		resp.Answer = buildAnswer(q, flat)
	}
	return resp
}

func emptyResponse() *domain.Response {
	sections := make(map[domain.EntityType][]domain.ScoredResult, len(domain.AllTypes()))
	for _, t := range domain.AllTypes() {
		sections[t] = []domain.ScoredResult{}
	}
	return &domain.Response{
		Results:       []domain.ScoredResult{},
		Sections:      sections,
		SearchSummary: emptyQuerySummary,
	}
}

// sortSection orders one section by score. The media section is reordered
// by timestamp when a recency intent is set. Ties break on timestamp then
// identifier so repeated runs yield identical ordering.
func sortSection(q domain.Query, t domain.EntityType, section []domain.ScoredResult) {
	byRecency := t == domain.TypeMedia && q.Recency != domain.RecencyNone
	sort.SliceStable(section, func(i, j int) bool {
		a, b := section[i], section[j]
		if byRecency {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				if q.Recency == domain.RecencyOldest {
					return a.CreatedAt.Before(b.CreatedAt)
				}
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// composeFlatList concatenates truncated sections. The leading type
// contributes more entries than trailing ones, and the whole list is
// bounded by the clamped request limit.
func composeFlatList(q domain.Query, sections map[domain.EntityType][]domain.ScoredResult) []domain.ScoredResult {
	var order []domain.EntityType
	if q.MediaBias {
		order = []domain.EntityType{domain.TypeMedia, domain.TypeVehicle, domain.TypeOrganization, domain.TypePerson, domain.TypeSource}
	} else {
		order = []domain.EntityType{domain.TypeVehicle, domain.TypeOrganization, domain.TypePerson, domain.TypeSource, domain.TypeMedia}
	}

	flat := make([]domain.ScoredResult, 0, q.Limit)
	for i, t := range order {
		cfg := domain.ConfigFor(t)
		take := cfg.FlatTrail
		if i == 0 {
			take = cfg.FlatLead
		}
		section := sections[t]
		if take > len(section) {
			take = len(section)
		}
		flat = append(flat, section[:take]...)
	}
	if len(flat) > q.Limit {
		flat = flat[:q.Limit]
	}
	return flat
}

func summaryLine(q domain.Query, total int) string {
	display := strings.TrimSpace(q.Raw)
	if q.MediaBias {
		return fmt.Sprintf("Found %d results for %q, images first.", total, display)
	}
	return fmt.Sprintf("Found %d results for %q.", total, display)
}

func buildAnswer(q domain.Query, flat []domain.ScoredResult) *domain.Answer {
	display := strings.TrimSpace(q.Raw)
	var text string
	if q.MediaBias {
		text = fmt.Sprintf("Photo matches for %q lead the results; related vehicle and organization records follow.", display)
	} else {
		text = fmt.Sprintf("Top archive matches for %q across vehicles, organizations, people and reference sources.", display)
	}

	count := maxCitations
	if count > len(flat) {
		count = len(flat)
	}
	citations := make([]domain.Citation, 0, count)
	for _, result := range flat[:count] {
		citations = append(citations, domain.Citation{Type: result.Type, ID: result.ID})
	}
	return &domain.Answer{Text: text, Citations: citations}
}

package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openclassics/archive-search/internal/core/domain"
)

type converterFake struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (f *converterFake) Convert(tokens []string) (string, error) {
	f.mu.Lock()
	f.tokens = tokens
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return strings.Join(tokens, " | "), nil
}

type entitySearcherFake struct {
	mu sync.Mutex

	fullText    map[domain.EntityType][]domain.Candidate
	fullTextErr map[domain.EntityType]error
	pattern     map[domain.EntityType][]domain.Candidate
	patternErr  map[domain.EntityType]error
	similar     map[domain.EntityType][]domain.Candidate
	similarErr  map[domain.EntityType]error

	fullTextQueries map[domain.EntityType]string
	similarCalled   map[domain.EntityType]bool
}

func newEntitySearcherFake() *entitySearcherFake {
	return &entitySearcherFake{
		fullText:        map[domain.EntityType][]domain.Candidate{},
		fullTextErr:     map[domain.EntityType]error{},
		pattern:         map[domain.EntityType][]domain.Candidate{},
		patternErr:      map[domain.EntityType]error{},
		similar:         map[domain.EntityType][]domain.Candidate{},
		similarErr:      map[domain.EntityType]error{},
		fullTextQueries: map[domain.EntityType]string{},
		similarCalled:   map[domain.EntityType]bool{},
	}
}

func (f *entitySearcherFake) SearchFullText(_ context.Context, t domain.EntityType, tsQuery string, _ int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullTextQueries[t] = tsQuery
	if err := f.fullTextErr[t]; err != nil {
		return nil, err
	}
	return f.fullText[t], nil
}

func (f *entitySearcherFake) SearchPattern(_ context.Context, t domain.EntityType, _ string, _ int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.patternErr[t]; err != nil {
		return nil, err
	}
	return f.pattern[t], nil
}

func (f *entitySearcherFake) SearchSimilar(_ context.Context, t domain.EntityType, _ string, _ int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.similarCalled[t] = true
	if err := f.similarErr[t]; err != nil {
		return nil, err
	}
	return f.similar[t], nil
}

type mediaSearcherFake struct {
	mu          sync.Mutex
	captions    []domain.Candidate
	captionsErr error
	parents     map[string]string
	parentsErr  error
	resolvedIDs []string
}

func (f *mediaSearcherFake) SearchCaptions(context.Context, string, int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captionsErr != nil {
		return nil, f.captionsErr
	}
	return f.captions, nil
}

func (f *mediaSearcherFake) ResolveParents(_ context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolvedIDs = ids
	if f.parentsErr != nil {
		return nil, f.parentsErr
	}
	return f.parents, nil
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.SearchEvent
	err    error
}

func (f *publisherFake) PublishSearchPerformed(_ context.Context, event domain.SearchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func vehicle(id, title string, rank float64) domain.Candidate {
	return domain.Candidate{ID: id, Type: domain.TypeVehicle, Title: title, RawRank: &rank, CreatedAt: time.Unix(1, 0)}
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	entities := newEntitySearcherFake()
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 0 || resp.Answer != nil {
		t.Fatalf("expected empty-state response, got %+v", resp)
	}
	if len(entities.fullTextQueries) != 0 {
		t.Fatalf("expected no retrieval for empty query")
	}
}

func TestSearchExpansionReachesRetrieval(t *testing.T) {
	conv := &converterFake{}
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{vehicle("v1", "911 Carrera RS", 0.9)}

	synonyms := map[string][]string{"porsche": {"911", "carrera", "gt3"}}
	uc := NewSearchUseCase(conv, entities, &mediaSearcherFake{}, nil, synonyms, quietLogger())

	resp, err := uc.Search(context.Background(), "Porsche", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got := entities.fullTextQueries[domain.TypeVehicle]; !strings.Contains(got, "911") {
		t.Fatalf("expected expanded token 911 in tsquery, got %q", got)
	}
	found := false
	for _, result := range resp.Results {
		if result.ID == "v1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected expansion-only match v1 in results, got %+v", resp.Results)
	}
}

func TestSearchFallsBackToPatternWhenConversionFails(t *testing.T) {
	conv := &converterFake{err: errors.New("tsquery unavailable")}
	entities := newEntitySearcherFake()
	entities.pattern[domain.TypeVehicle] = []domain.Candidate{
		{ID: "v1", Type: domain.TypeVehicle, Title: "Porsche 356", CreatedAt: time.Unix(1, 0)},
	}
	uc := NewSearchUseCase(conv, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "porsche three five six seven eight nine", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Sections[domain.TypeVehicle]) != 1 {
		t.Fatalf("expected pattern-tier vehicle result, got %+v", resp.Sections[domain.TypeVehicle])
	}
	if resp.Debug == nil || resp.Debug.FullText[domain.TypeVehicle] {
		t.Fatalf("expected debug to report pattern fallback for vehicles")
	}
}

func TestSearchFallsBackToPatternWhenFullTextFails(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullTextErr[domain.TypeVehicle] = errors.New("index offline")
	entities.pattern[domain.TypeVehicle] = []domain.Candidate{
		{ID: "v1", Type: domain.TypeVehicle, Title: "Porsche 964", CreatedAt: time.Unix(1, 0)},
	}
	entities.fullText[domain.TypeOrganization] = []domain.Candidate{
		{ID: "o1", Type: domain.TypeOrganization, Title: "Porsche Club", RawRank: rankOf(0.5), CreatedAt: time.Unix(1, 0)},
	}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Sections[domain.TypeVehicle]) != 1 {
		t.Fatalf("expected vehicle fallback result")
	}
	if !resp.Debug.FullText[domain.TypeOrganization] {
		t.Fatalf("expected organizations to stay on the full-text tier")
	}
}

func TestSearchFuzzyWidenFiresBelowThresholdAndMerges(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{
		vehicle("v1", "Porsche 911", 0.9),
		vehicle("v2", "Porsche 912", 0.8),
		vehicle("v3", "Porsche 914", 0.7),
	}
	entities.similar[domain.TypeVehicle] = []domain.Candidate{
		{ID: "v1", Type: domain.TypeVehicle, Title: "Porsche 911", CreatedAt: time.Unix(1, 0)},
		{ID: "v9", Type: domain.TypeVehicle, Title: "Porsch 911 typo listing", CreatedAt: time.Unix(1, 0)},
	}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !entities.similarCalled[domain.TypeVehicle] {
		t.Fatalf("expected fuzzy widen to fire for 3 < 8 vehicles")
	}

	section := resp.Sections[domain.TypeVehicle]
	if len(section) != 4 {
		t.Fatalf("expected widen to merge, not replace: got %d results", len(section))
	}
	for _, result := range section {
		if result.ID == "v1" && result.Metadata["tier"] != string(domain.TierFullText) {
			t.Fatalf("expected precise v1 to survive the fuzzy duplicate, got tier %v", result.Metadata["tier"])
		}
	}
}

func TestSearchFuzzyWidenSkippedAboveThreshold(t *testing.T) {
	entities := newEntitySearcherFake()
	for i := 0; i < 9; i++ {
		entities.fullText[domain.TypeVehicle] = append(
			entities.fullText[domain.TypeVehicle],
			vehicle("v"+string(rune('0'+i)), "Porsche 911", 0.5),
		)
	}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	if _, err := uc.Search(context.Background(), "porsche", 20); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if entities.similarCalled[domain.TypeVehicle] {
		t.Fatalf("expected no fuzzy widen for 9 >= 8 vehicles")
	}
}

func TestSearchAbsorbsSingleTypeFailure(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullTextErr[domain.TypePerson] = errors.New("fulltext down")
	entities.patternErr[domain.TypePerson] = errors.New("pattern down")
	entities.similarErr[domain.TypePerson] = errors.New("similarity down")
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{vehicle("v1", "Porsche 911", 0.9)}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("expected partial failure to be absorbed, got %v", err)
	}
	if len(resp.Sections[domain.TypePerson]) != 0 {
		t.Fatalf("expected empty people section")
	}
	if len(resp.Sections[domain.TypeVehicle]) != 1 {
		t.Fatalf("expected vehicle result to survive")
	}
}

func TestSearchTotalFailureSurfaces(t *testing.T) {
	entities := newEntitySearcherFake()
	down := errors.New("db down")
	for _, entityType := range domain.PrimaryTypes {
		entities.fullTextErr[entityType] = down
		entities.patternErr[entityType] = down
	}
	entities.patternErr[domain.TypeSource] = down
	media := &mediaSearcherFake{captionsErr: down}
	uc := NewSearchUseCase(&converterFake{}, entities, media, nil, nil, quietLogger())

	_, err := uc.Search(context.Background(), "porsche", 20)
	if err == nil {
		t.Fatalf("expected error when every tier failed")
	}
	if !domain.IsKind(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
}

func TestSearchMediaParentResolution(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{vehicle("v1", "Porsche 911", 0.9)}
	media := &mediaSearcherFake{
		captions: []domain.Candidate{
			{ID: "m1", Type: domain.TypeMedia, Title: "porsche at goodwood", ParentID: "v1", CreatedAt: time.Unix(1, 0)},
			{ID: "m2", Type: domain.TypeMedia, Title: "porsche paddock", ParentID: "v-gone", CreatedAt: time.Unix(2, 0)},
		},
		parents: map[string]string{"v1": "1973 Porsche 911"},
	}
	uc := NewSearchUseCase(&converterFake{}, entities, media, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	section := resp.Sections[domain.TypeMedia]
	if len(section) != 2 {
		t.Fatalf("expected 2 media results, got %d", len(section))
	}
	byID := map[string]domain.ScoredResult{}
	for _, result := range section {
		byID[result.ID] = result
	}
	if byID["m1"].Metadata["parent_title"] != "1973 Porsche 911" {
		t.Fatalf("expected resolved parent title, got %v", byID["m1"].Metadata["parent_title"])
	}
	if byID["m2"].Metadata["parent_title"] != "" {
		t.Fatalf("expected empty context for unresolved parent, got %v", byID["m2"].Metadata["parent_title"])
	}
	if len(media.resolvedIDs) != 2 {
		t.Fatalf("expected one batch lookup with 2 distinct parents, got %v", media.resolvedIDs)
	}
}

func TestSearchMediaParentResolutionFailureAbsorbed(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{vehicle("v1", "Porsche 911", 0.9)}
	media := &mediaSearcherFake{
		captions:   []domain.Candidate{{ID: "m1", Type: domain.TypeMedia, Title: "porsche", ParentID: "v1", CreatedAt: time.Unix(1, 0)}},
		parentsErr: errors.New("lookup failed"),
	}
	uc := NewSearchUseCase(&converterFake{}, entities, media, nil, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("expected parent resolution failure to be absorbed, got %v", err)
	}
	if len(resp.Sections[domain.TypeMedia]) != 1 {
		t.Fatalf("expected media result to survive resolution failure")
	}
}

func TestSearchIdempotent(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{
		vehicle("v1", "Porsche 911", 0.9),
		vehicle("v2", "Porsche 356", 0.9),
	}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, nil, nil, quietLogger())

	first, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := uc.Search(context.Background(), "porsche", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(first.Results) != len(second.Results) {
		t.Fatalf("expected identical result counts, got %d vs %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		if first.Results[i].ID != second.Results[i].ID ||
			first.Results[i].RelevanceScore != second.Results[i].RelevanceScore {
			t.Fatalf("expected identical ordering and scores at %d: %+v vs %+v",
				i, first.Results[i], second.Results[i])
		}
	}
}

func TestSearchPublishesAnalyticsEvent(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{vehicle("v1", "Porsche 911", 0.9)}
	publisher := &publisherFake{}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, publisher, nil, quietLogger())

	resp, err := uc.Search(context.Background(), "Porsche photos", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if !event.MediaBias || event.Query != "porsche photos" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.ResultCount != len(resp.Results) {
		t.Fatalf("expected event count %d, got %d", len(resp.Results), event.ResultCount)
	}
}

func TestSearchPublisherFailureAbsorbed(t *testing.T) {
	entities := newEntitySearcherFake()
	entities.fullText[domain.TypeVehicle] = []domain.Candidate{vehicle("v1", "Porsche 911", 0.9)}
	publisher := &publisherFake{err: errors.New("broker down")}
	uc := NewSearchUseCase(&converterFake{}, entities, &mediaSearcherFake{}, publisher, nil, quietLogger())

	if _, err := uc.Search(context.Background(), "porsche", 20); err != nil {
		t.Fatalf("expected publish failure to be absorbed, got %v", err)
	}
}

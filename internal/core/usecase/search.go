package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openclassics/archive-search/internal/core/domain"
	"github.com/openclassics/archive-search/internal/core/ports"
)

// maxParentLookups bounds the batch resolution of media parent records.
const maxParentLookups = 100

type SearchUseCase struct {
	converter ports.QueryConverter
	entities  ports.EntitySearcher
	media     ports.MediaSearcher
	publisher ports.EventPublisher
	synonyms  map[string][]string
	logger    *slog.Logger
}

func NewSearchUseCase(
	converter ports.QueryConverter,
	entities ports.EntitySearcher,
	media ports.MediaSearcher,
	publisher ports.EventPublisher,
	synonyms map[string][]string,
	logger *slog.Logger,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		converter: converter,
		entities:  entities,
		media:     media,
		publisher: publisher,
		synonyms:  synonyms,
		logger:    logger,
	}
}

// Search runs the full pipeline: normalize, retrieve concurrently per
// entity type, widen below-threshold types, score, merge, cross-reference
// media parents and assemble the sectioned response. Individual tier
// failures degrade that type's result set to empty; only a total failure
// across every type surfaces as an error.
func (uc *SearchUseCase) Search(ctx context.Context, rawQuery string, limit int) (*domain.Response, error) {
	q := NormalizeQuery(rawQuery, limit, uc.synonyms)
	if q.Empty() {
		return emptyResponse(), nil
	}

	primaries := uc.runPrimaryTiers(ctx, q)
	sourcesOutcome := primaries[domain.TypeSource]
	mediaOutcome := primaries[domain.TypeMedia]

	if err := totalFailure(primaries); err != nil {
		return nil, domain.WrapError(domain.ErrSearchUnavailable, "search", err)
	}

	widened := uc.runFuzzyWiden(ctx, q, primaries)

	byType := make(map[domain.EntityType][]domain.ScoredResult, len(domain.AllTypes()))
	for _, t := range domain.PrimaryTypes {
		outcome := primaries[t]
		var batches [][]domain.ScoredResult
		if outcome.State == domain.TierOK {
			batches = append(batches, scoreBatch(q, outcome.Tier, outcome.Candidates))
		}
		if extra, ok := widened[t]; ok {
			batches = append(batches, scoreBatch(q, domain.TierSimilarity, extra))
		}
		byType[t] = mergeTiers(batches...)
	}
	if sourcesOutcome.State == domain.TierOK {
		byType[domain.TypeSource] = mergeTiers(scoreBatch(q, domain.TierPattern, sourcesOutcome.Candidates))
	}
	if mediaOutcome.State == domain.TierOK {
		media := mergeTiers(scoreBatch(q, domain.TierPattern, mediaOutcome.Candidates))
		uc.resolveMediaParents(ctx, media)
		byType[domain.TypeMedia] = media
	}

	debug := buildDebug(q, primaries, widened)
	resp := assembleResponse(q, byType, debug)

	uc.publishEvent(ctx, q, len(resp.Results))
	return resp, nil
}

// runPrimaryTiers issues tiers 1-2 for the primary types plus the
// single-strategy secondary retrievals, all concurrently. Outcomes are
// collected per type; goroutines never return errors, so no sibling call
// is cancelled by another's failure.
func (uc *SearchUseCase) runPrimaryTiers(ctx context.Context, q domain.Query) map[domain.EntityType]domain.TierOutcome {
	outcomes := make(map[domain.EntityType]domain.TierOutcome, len(domain.AllTypes()))
	var mu sync.Mutex
	record := func(t domain.EntityType, outcome domain.TierOutcome) {
		mu.Lock()
		outcomes[t] = outcome
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range domain.PrimaryTypes {
		g.Go(func() error {
			record(t, uc.runWaterfall(gctx, t, q))
			return nil
		})
	}
	g.Go(func() error {
		record(domain.TypeSource, uc.runPattern(gctx, domain.TypeSource, q))
		return nil
	})
	g.Go(func() error {
		record(domain.TypeMedia, uc.runMediaCaptions(gctx, q))
		return nil
	})
	_ = g.Wait()
	return outcomes
}

// runWaterfall tries the full-text tier and falls back to the pattern tier
// when query conversion or the full-text call fails. The fallback is
// per-type; other types keep their own tier decisions.
func (uc *SearchUseCase) runWaterfall(ctx context.Context, t domain.EntityType, q domain.Query) domain.TierOutcome {
	tsQuery, err := uc.converter.Convert(q.Expanded)
	if err != nil {
		uc.logger.Debug("fulltext_unavailable", "type", string(t), "error", err)
		return uc.runPattern(ctx, t, q)
	}

	candidates, err := uc.entities.SearchFullText(ctx, t, tsQuery, q.Limit)
	if err != nil {
		uc.logger.Warn("fulltext_tier_failed", "type", string(t), "error", err)
		return uc.runPattern(ctx, t, q)
	}
	return domain.TierOutcome{Tier: domain.TierFullText, State: domain.TierOK, Candidates: candidates}
}

func (uc *SearchUseCase) runPattern(ctx context.Context, t domain.EntityType, q domain.Query) domain.TierOutcome {
	candidates, err := uc.entities.SearchPattern(ctx, t, q.Normalized, q.Limit)
	if err != nil {
		uc.logger.Warn("pattern_tier_failed", "type", string(t), "error", err)
		return domain.TierOutcome{Tier: domain.TierPattern, State: domain.TierFailed, Err: err}
	}
	return domain.TierOutcome{Tier: domain.TierPattern, State: domain.TierOK, Candidates: candidates}
}

func (uc *SearchUseCase) runMediaCaptions(ctx context.Context, q domain.Query) domain.TierOutcome {
	candidates, err := uc.media.SearchCaptions(ctx, q.Normalized, q.Limit)
	if err != nil {
		uc.logger.Warn("media_caption_search_failed", "error", err)
		return domain.TierOutcome{Tier: domain.TierPattern, State: domain.TierFailed, Err: err}
	}
	return domain.TierOutcome{Tier: domain.TierPattern, State: domain.TierOK, Candidates: candidates}
}

// runFuzzyWiden fires the similarity tier for every primary type whose
// tier 1-2 result count is below its configured minimum. Widen calls are
// additive: their output merges into the existing candidates, never
// replacing them.
func (uc *SearchUseCase) runFuzzyWiden(ctx context.Context, q domain.Query, primaries map[domain.EntityType]domain.TierOutcome) map[domain.EntityType][]domain.Candidate {
	widened := make(map[domain.EntityType][]domain.Candidate)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range domain.PrimaryTypes {
		cfg := domain.ConfigFor(t)
		if cfg.FuzzyMinimum <= 0 || len(primaries[t].Candidates) >= cfg.FuzzyMinimum {
			continue
		}
		g.Go(func() error {
			candidates, err := uc.entities.SearchSimilar(gctx, t, q.Normalized, q.Limit)
			if err != nil {
				uc.logger.Warn("similarity_tier_failed", "type", string(t), "error", err)
				return nil
			}
			mu.Lock()
			widened[t] = candidates
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return widened
}

// resolveMediaParents attaches owning-vehicle context to media results in
// one batch lookup. Records whose parent cannot be resolved keep empty
// context rather than failing the request.
func (uc *SearchUseCase) resolveMediaParents(ctx context.Context, media []domain.ScoredResult) {
	if len(media) == 0 {
		return
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(media))
	for _, result := range media {
		parentID, _ := result.Metadata["parent_id"].(string)
		if parentID == "" {
			continue
		}
		if _, ok := seen[parentID]; ok {
			continue
		}
		seen[parentID] = struct{}{}
		ids = append(ids, parentID)
		if len(ids) >= maxParentLookups {
			break
		}
	}
	if len(ids) == 0 {
		return
	}

	contexts, err := uc.media.ResolveParents(ctx, ids)
	if err != nil {
		uc.logger.Warn("media_parent_resolution_failed", "error", err)
		contexts = nil
	}
	for i := range media {
		parentID, _ := media[i].Metadata["parent_id"].(string)
		if parentID == "" {
			continue
		}
		media[i].Metadata["parent_title"] = contexts[parentID]
	}
}

func buildDebug(q domain.Query, primaries map[domain.EntityType]domain.TierOutcome, widened map[domain.EntityType][]domain.Candidate) *domain.Debug {
	fullText := make(map[domain.EntityType]bool, len(domain.PrimaryTypes))
	for _, t := range domain.PrimaryTypes {
		outcome := primaries[t]
		fullText[t] = outcome.Tier == domain.TierFullText && outcome.State == domain.TierOK
	}

	var widenedTypes []domain.EntityType
	for t := range widened {
		widenedTypes = append(widenedTypes, t)
	}
	sort.Slice(widenedTypes, func(i, j int) bool { return widenedTypes[i] < widenedTypes[j] })

	return &domain.Debug{
		FullText:     fullText,
		FuzzyWidened: widenedTypes,
		MediaBias:    q.MediaBias,
		Recency:      q.Recency,
	}
}

// totalFailure reports an error only when no tier for any entity type
// succeeded, which is the single case surfaced to the caller.
func totalFailure(outcomes map[domain.EntityType]domain.TierOutcome) error {
	errs := make([]error, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.State == domain.TierOK {
			return nil
		}
		if outcome.Err != nil {
			errs = append(errs, outcome.Err)
		}
	}
	if joined := errors.Join(errs...); joined != nil {
		return joined
	}
	return errors.New("no retrieval tier succeeded")
}

func (uc *SearchUseCase) publishEvent(ctx context.Context, q domain.Query, resultCount int) {
	if uc.publisher == nil {
		return
	}
	event := domain.SearchEvent{
		Query:       q.Normalized,
		MediaBias:   q.MediaBias,
		Recency:     q.Recency,
		ResultCount: resultCount,
	}
	if err := uc.publisher.PublishSearchPerformed(ctx, event); err != nil {
		uc.logger.Warn("search_event_publish_failed", "error", err)
	}
}

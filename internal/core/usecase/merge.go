package usecase

import "github.com/openclassics/archive-search/internal/core/domain"

type resultIdentity struct {
	entityType domain.EntityType
	id         string
}

// mergeTiers deduplicates scored batches by (type, id), keeping the first
// occurrence. Callers pass batches in precise, pattern, fuzzy order, so a
// full-text hit always wins over a later fuzzy duplicate of the same record
// while the fuzzy tier can still add previously absent candidates.
func mergeTiers(batches ...[]domain.ScoredResult) []domain.ScoredResult {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}

	seen := make(map[resultIdentity]struct{}, total)
	out := make([]domain.ScoredResult, 0, total)
	for _, batch := range batches {
		for _, result := range batch {
			key := resultIdentity{entityType: result.Type, id: result.ID}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, result)
		}
	}
	return out
}

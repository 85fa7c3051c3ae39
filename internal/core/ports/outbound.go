package ports

import (
	"context"

	"github.com/openclassics/archive-search/internal/core/domain"
)

// QueryConverter turns expanded query tokens into the datastore's native
// full-text query syntax. An error means the precise tier is unavailable
// for this query and the caller must fall back to the pattern tier.
type QueryConverter interface {
	Convert(tokens []string) (string, error)
}

// EntitySearcher retrieves candidates for the primary entity types through
// the three tier strategies. Implementations are read-only.
type EntitySearcher interface {
	SearchFullText(ctx context.Context, t domain.EntityType, tsQuery string, limit int) ([]domain.Candidate, error)
	SearchPattern(ctx context.Context, t domain.EntityType, text string, limit int) ([]domain.Candidate, error)
	SearchSimilar(ctx context.Context, t domain.EntityType, text string, limit int) ([]domain.Candidate, error)
}

// MediaSearcher retrieves media candidates by caption and resolves their
// owning vehicles for display context.
type MediaSearcher interface {
	SearchCaptions(ctx context.Context, text string, limit int) ([]domain.Candidate, error)
	ResolveParents(ctx context.Context, ids []string) (map[string]string, error)
}

// EventPublisher emits search analytics events. Publishing is best-effort;
// failures never affect the search response.
type EventPublisher interface {
	PublishSearchPerformed(ctx context.Context, event domain.SearchEvent) error
}

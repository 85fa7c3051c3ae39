package ports

import (
	"context"

	"github.com/openclassics/archive-search/internal/core/domain"
)

// SearchService is the inbound contract for federated archive search.
type SearchService interface {
	Search(ctx context.Context, rawQuery string, limit int) (*domain.Response, error)
}

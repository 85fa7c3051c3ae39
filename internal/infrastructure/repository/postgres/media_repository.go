package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/openclassics/archive-search/internal/core/domain"
	"github.com/openclassics/archive-search/internal/infrastructure/resilience"
)

// MediaRepository retrieves media records by caption and resolves their
// owning vehicles for display context.
type MediaRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewMediaRepository(db *sql.DB, executor *resilience.Executor) *MediaRepository {
	return &MediaRepository{db: db, executor: executor}
}

func (r *MediaRepository) SearchCaptions(ctx context.Context, text string, limit int) ([]domain.Candidate, error) {
	const query = `
SELECT id::text, coalesce(caption, ''), coalesce(url, ''), coalesce(vehicle_id::text, ''), created_at
FROM media
WHERE caption ILIKE '%' || $1 || '%'
ORDER BY created_at DESC, id
LIMIT $2
`

	var out []domain.Candidate
	call := func(callCtx context.Context) error {
		rows, err := r.db.QueryContext(callCtx, query, text, limit)
		if err != nil {
			return fmt.Errorf("query media: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			c := domain.Candidate{Type: domain.TypeMedia}
			if err := rows.Scan(&c.ID, &c.Title, &c.ImageURL, &c.ParentID, &c.CreatedAt); err != nil {
				return fmt.Errorf("scan media: %w", err)
			}
			out = append(out, c)
		}
		return rows.Err()
	}

	if err := r.execute(ctx, "db.pattern.media", call); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveParents fetches short display titles for the given vehicle ids in
// one query. Unknown ids are simply absent from the returned map.
func (r *MediaRepository) ResolveParents(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`
SELECT id::text, trim(concat_ws(' ', model_year, make, model))
FROM vehicles
WHERE id::text IN (%s)
`, strings.Join(placeholders, ", "))

	out := make(map[string]string, len(ids))
	call := func(callCtx context.Context) error {
		rows, err := r.db.QueryContext(callCtx, query, args...)
		if err != nil {
			return fmt.Errorf("query media parents: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id, title string
			if err := rows.Scan(&id, &title); err != nil {
				return fmt.Errorf("scan media parent: %w", err)
			}
			out[id] = title
		}
		return rows.Err()
	}

	if err := r.execute(ctx, "db.media.parents", call); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MediaRepository) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if r.executor != nil {
		return r.executor.Execute(ctx, operation, call, classifySQLError)
	}
	return call(ctx)
}

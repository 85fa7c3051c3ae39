package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openclassics/archive-search/internal/core/domain"
	"github.com/openclassics/archive-search/internal/infrastructure/resilience"
)

// tableSpec maps one entity type onto its backing table. Expressions are
// trusted SQL fragments from this static table, never user input.
type tableSpec struct {
	table         string
	titleExpr     string
	descExpr      string
	canonicalExpr string
	imageExpr     string
	hasGeo        bool
}

var tableSpecs = map[domain.EntityType]tableSpec{
	domain.TypeVehicle: {
		table:         "vehicles",
		titleExpr:     "trim(concat_ws(' ', model_year, make, model))",
		descExpr:      "coalesce(description, '')",
		canonicalExpr: "coalesce(make, '')",
		imageExpr:     "coalesce(image_url, '')",
		hasGeo:        true,
	},
	domain.TypeOrganization: {
		table:         "organizations",
		titleExpr:     "name",
		descExpr:      "coalesce(description, '')",
		canonicalExpr: "coalesce(website_domain, '')",
		imageExpr:     "coalesce(logo_url, '')",
		hasGeo:        true,
	},
	domain.TypePerson: {
		table:         "people",
		titleExpr:     "full_name",
		descExpr:      "coalesce(bio, '')",
		canonicalExpr: "''",
		imageExpr:     "coalesce(avatar_url, '')",
	},
	domain.TypeSource: {
		table:         "sources",
		titleExpr:     "title",
		descExpr:      "coalesce(summary, '')",
		canonicalExpr: "coalesce(url_domain, '')",
		imageExpr:     "''",
	},
}

// SearchRepository serves the three retrieval tiers over the entity tables.
// All queries are read-only; failures are classified for retry by the
// resilience executor and absorbed at the usecase boundary.
type SearchRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewSearchRepository(db *sql.DB, executor *resilience.Executor) *SearchRepository {
	return &SearchRepository{db: db, executor: executor}
}

func (r *SearchRepository) SearchFullText(ctx context.Context, t domain.EntityType, tsQuery string, limit int) ([]domain.Candidate, error) {
	spec, err := specFor(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT %s, ts_rank(search_vector, query) AS rank
FROM %s, to_tsquery('english', $1) AS query
WHERE search_vector @@ query
ORDER BY rank DESC, created_at DESC, id
LIMIT $2
`, selectList(spec), spec.table)

	return r.queryCandidates(ctx, t, spec, "db.fulltext."+spec.table, query, true, tsQuery, limit)
}

func (r *SearchRepository) SearchPattern(ctx context.Context, t domain.EntityType, text string, limit int) ([]domain.Candidate, error) {
	spec, err := specFor(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE %s ILIKE '%%' || $1 || '%%' OR %s ILIKE '%%' || $1 || '%%'
ORDER BY created_at DESC, id
LIMIT $2
`, selectList(spec), spec.table, spec.titleExpr, spec.descExpr)

	return r.queryCandidates(ctx, t, spec, "db.pattern."+spec.table, query, false, text, limit)
}

func (r *SearchRepository) SearchSimilar(ctx context.Context, t domain.EntityType, text string, limit int) ([]domain.Candidate, error) {
	spec, err := specFor(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE %s %% $1 OR %s %% $1
ORDER BY greatest(similarity(%s, $1), similarity(%s, $1)) DESC, created_at DESC, id
LIMIT $2
`, selectList(spec), spec.table, spec.titleExpr, spec.descExpr, spec.titleExpr, spec.descExpr)

	return r.queryCandidates(ctx, t, spec, "db.similarity."+spec.table, query, false, text, limit)
}

func specFor(t domain.EntityType) (tableSpec, error) {
	spec, ok := tableSpecs[t]
	if !ok {
		return tableSpec{}, fmt.Errorf("no table mapping for entity type %q", t)
	}
	return spec, nil
}

func selectList(spec tableSpec) string {
	geo := "NULL::double precision, NULL::double precision"
	if spec.hasGeo {
		geo = "latitude, longitude"
	}
	return fmt.Sprintf(
		"id::text, %s AS title, %s AS description, %s AS canonical, %s AS image_url, %s, created_at",
		spec.titleExpr, spec.descExpr, spec.canonicalExpr, spec.imageExpr, geo,
	)
}

func (r *SearchRepository) queryCandidates(
	ctx context.Context,
	t domain.EntityType,
	spec tableSpec,
	operation string,
	query string,
	ranked bool,
	text string,
	limit int,
) ([]domain.Candidate, error) {
	var out []domain.Candidate
	call := func(callCtx context.Context) error {
		rows, err := r.db.QueryContext(callCtx, query, text, limit)
		if err != nil {
			return fmt.Errorf("query %s: %w", spec.table, err)
		}
		defer rows.Close()

		candidates, err := scanCandidates(rows, t, ranked)
		if err != nil {
			return fmt.Errorf("scan %s: %w", spec.table, err)
		}
		out = candidates
		return nil
	}

	var err error
	if r.executor != nil {
		err = r.executor.Execute(ctx, operation, call, classifySQLError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanCandidates(rows *sql.Rows, t domain.EntityType, ranked bool) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var lat, lng sql.NullFloat64
		var rank float64

		dest := []any{&c.ID, &c.Title, &c.Description, &c.Canonical, &c.ImageURL, &lat, &lng, &c.CreatedAt}
		if ranked {
			dest = append(dest, &rank)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		c.Type = t
		if lat.Valid && lng.Valid {
			c.Location = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		if ranked {
			r := rank
			c.RawRank = &r
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

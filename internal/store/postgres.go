package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/normapipe/normapipe/internal/record"
)

const (
	regulationsTable = "regulations"
	componentsTable  = "regulations_component"
)

// uniqueViolation is the Postgres error code for unique constraint
// conflicts.
const uniqueViolation = "23505"

// regulationColumns lists the insert columns in statement order.
var regulationColumns = []string{
	"created_at", "update_at", "is_active", "title", "gtype",
	"entity", "external_link", "rtype_id", "summary", "classification_id",
}

// Postgres implements Store over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies the pool can reach the database.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ExistingRegulations reads the identity projection of every persisted row
// for the entity.
func (s *Postgres) ExistingRegulations(ctx context.Context, entity string) ([]record.Projection, error) {
	query := fmt.Sprintf(`
		SELECT title, to_char(created_at, 'YYYY-MM-DD'), entity, COALESCE(external_link, '')
		FROM %s
		WHERE entity = $1
	`, regulationsTable)

	rows, err := s.pool.Query(ctx, query, entity)
	if err != nil {
		return nil, fmt.Errorf("query existing regulations: %w", err)
	}
	defer rows.Close()

	var out []record.Projection
	for rows.Next() {
		var p record.Projection
		if err := rows.Scan(&p.Title, &p.CreatedAt, &p.Entity, &p.ExternalLink); err != nil {
			return nil, fmt.Errorf("scan existing regulation: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing regulations: %w", err)
	}
	return out, nil
}

// InsertRegulations bulk-inserts the records inside one transaction. The
// statement returns the assigned ids directly, so no read-back query is
// needed and concurrent writers cannot interleave between insert and id
// recovery.
func (s *Postgres) InsertRegulations(ctx context.Context, regs []record.Regulation) ([]int64, error) {
	if len(regs) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args := buildRegulationInsert(regs)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyInsertErr(err)
	}

	ids := make([]int64, 0, len(regs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan inserted id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classifyInsertErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return ids, nil
}

// LinkComponents inserts one association row per id in a single statement.
func (s *Postgres) LinkComponents(ctx context.Context, regulationIDs []int64, componentID int64) (int64, error) {
	if len(regulationIDs) == 0 {
		return 0, nil
	}

	var b strings.Builder
	args := make([]any, 0, len(regulationIDs)+1)
	fmt.Fprintf(&b, "INSERT INTO %s (regulations_id, components_id) VALUES ", componentsTable)
	args = append(args, componentID)
	for i, id := range regulationIDs {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, id)
		fmt.Fprintf(&b, "($%d, $1)", len(args))
	}

	tag, err := s.pool.Exec(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", componentsTable, err)
	}
	return tag.RowsAffected(), nil
}

// buildRegulationInsert renders the multi-row insert with RETURNING id.
func buildRegulationInsert(regs []record.Regulation) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ",
		regulationsTable, strings.Join(regulationColumns, ", "))

	args := make([]any, 0, len(regs)*len(regulationColumns))
	for i, r := range regs {
		if i > 0 {
			b.WriteString(", ")
		}
		placeholders := make([]string, len(regulationColumns))
		values := []any{
			r.CreatedAt, r.UpdateAt, r.IsActive, r.Title, r.Gtype,
			r.Entity, r.ExternalLink, r.RtypeID, r.Summary, r.ClassificationID,
		}
		for j := range values {
			placeholders[j] = fmt.Sprintf("$%d", len(args)+j+1)
		}
		args = append(args, values...)
		fmt.Fprintf(&b, "(%s)", strings.Join(placeholders, ", "))
	}

	b.WriteString(" RETURNING id")
	return b.String(), args
}

// classifyInsertErr maps unique violations onto ErrDuplicate so callers can
// soften the outcome.
func classifyInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
	}
	return fmt.Errorf("insert into %s: %w", regulationsTable, err)
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/lead-crm/internal/entity"
)

const leadColumns = `id, owner_id, name, email, company, stage, notes, created_at, updated_at`

// LeadRepository is the Postgres lead store. Every statement is qualified by owner_id.
type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, owner_id, name, email, company, stage, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.OwnerID,
		lead.Name,
		lead.Email,
		nullString(lead.Company),
		string(lead.Stage),
		nullString(lead.Notes),
		lead.CreatedAt.UTC(),
		lead.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, ownerID, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND owner_id = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id, ownerID))
}

func (r *LeadRepository) FindByEmail(ctx context.Context, ownerID, email string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE owner_id = $1 AND email = $2 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, ownerID, email))
}

// Update writes only the fields present in patch, in a single statement.
func (r *LeadRepository) Update(ctx context.Context, ownerID, id string, patch entity.LeadPatch, updatedAt time.Time) (*entity.Lead, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Company != nil {
		set("company", nullString(*patch.Company))
	}
	if patch.Stage != nil {
		set("stage", string(*patch.Stage))
	}
	if patch.Notes != nil {
		set("notes", nullString(*patch.Notes))
	}
	set("updated_at", updatedAt.UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(
		`UPDATE leads SET %s WHERE id = $%d AND owner_id = $%d RETURNING `+leadColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	lead, err := r.scanOne(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, entity.ErrEmailAlreadyExists
		}
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) Delete(ctx context.Context, ownerID, id string) (*entity.Lead, error) {
	query := `DELETE FROM leads WHERE id = $1 AND owner_id = $2 RETURNING ` + leadColumns
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id, ownerID))
}

// Search returns matching leads newest first. Limit <= 0 means no limit.
func (r *LeadRepository) Search(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + leadColumns + ` FROM leads WHERE ` + where + ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search leads: %w", err)
	}
	defer rows.Close()

	leads := []entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Count(ctx context.Context, filter entity.LeadFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (r *LeadRepository) CountByStage(ctx context.Context, ownerID string) ([]entity.StageCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT stage, COUNT(*) FROM leads WHERE owner_id = $1 GROUP BY stage`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count leads by stage: %w", err)
	}
	defer rows.Close()

	var counts []entity.StageCount
	for rows.Next() {
		var (
			stage string
			n     int
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts = append(counts, entity.StageCount{Stage: entity.Stage(stage), Count: n})
	}
	return counts, rows.Err()
}

func (r *LeadRepository) CountInStages(ctx context.Context, ownerID string, stages []entity.Stage) (int, error) {
	if len(stages) == 0 {
		return 0, nil
	}

	args := []any{ownerID}
	marks := make([]string, len(stages))
	for i, s := range stages {
		args = append(args, string(s))
		marks[i] = fmt.Sprintf("$%d", len(args))
	}

	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE owner_id = $1 AND stage IN (`+strings.Join(marks, ", ")+`)`,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count converted leads: %w", err)
	}
	return n, nil
}

func (r *LeadRepository) CountCreatedBetween(ctx context.Context, ownerID string, from, to time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3`,
		ownerID, from.UTC(), to.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count leads created in range: %w", err)
	}
	return n, nil
}

func (r *LeadRepository) CreatedSince(ctx context.Context, ownerID string, since time.Time) ([]time.Time, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT created_at FROM leads WHERE owner_id = $1 AND created_at >= $2 ORDER BY created_at`,
		ownerID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("load lead creation times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t.UTC())
	}
	return out, rows.Err()
}

// buildWhere renders the conjunctive owner-scoped predicate. owner_id is always $1.
func buildWhere(f entity.LeadFilter) (string, []any) {
	clauses := []string{"owner_id = $1"}
	args := []any{f.OwnerID}

	like := func(expr, value string) {
		args = append(args, likePattern(value))
		clauses = append(clauses, fmt.Sprintf(`LOWER(%s) LIKE $%d ESCAPE '\'`, expr, len(args)))
	}

	if f.Name != "" {
		like("name", f.Name)
	}
	if f.Email != "" {
		like("email", f.Email)
	}
	if f.Company != "" {
		like("COALESCE(company, '')", f.Company)
	}
	if f.Query != "" {
		args = append(args, likePattern(f.Query))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(name) LIKE $%[1]d ESCAPE '\' OR LOWER(email) LIKE $%[1]d ESCAPE '\' OR LOWER(COALESCE(company, '')) LIKE $%[1]d ESCAPE '\')`, n))
	}
	if f.Stage != "" {
		args = append(args, string(f.Stage))
		clauses = append(clauses, fmt.Sprintf("stage = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LeadRepository) scanOne(row *sql.Row) (*entity.Lead, error) {
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

func scanLead(s rowScanner) (*entity.Lead, error) {
	var (
		lead           entity.Lead
		stage          string
		company, notes sql.NullString
	)
	err := s.Scan(
		&lead.ID,
		&lead.OwnerID,
		&lead.Name,
		&lead.Email,
		&company,
		&stage,
		&notes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Company = company.String
	lead.Notes = notes.String
	lead.Stage = entity.Stage(stage)
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return &lead, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

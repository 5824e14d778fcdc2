package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/xavierca1/lead-crm/internal/entity"
)

const sqliteSchema = `
CREATE TABLE leads (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	company    TEXT,
	stage      TEXT NOT NULL DEFAULT 'new',
	notes      TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX leads_owner_email_key ON leads (owner_id, email);
CREATE TABLE session (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	expires_at TIMESTAMP NOT NULL
);
`

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, repo *LeadRepository, owner, name, email, company string, stage entity.Stage, at time.Time) *entity.Lead {
	t.Helper()
	lead := entity.NewLead(owner, name, email, company, stage, "", at)
	require.NoError(t, repo.Create(context.Background(), lead))
	return lead
}

func TestLeadRepository_CreateAndFind(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	lead := entity.NewLead("user-a", "John Doe", "john@x.com", "", "", "met at expo", base)
	require.NoError(t, repo.Create(ctx, lead))

	got, err := repo.FindByID(ctx, "user-a", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.Name)
	assert.Equal(t, entity.StageNew, got.Stage)
	assert.Equal(t, "", got.Company)
	assert.Equal(t, "met at expo", got.Notes)
	assert.True(t, got.CreatedAt.Equal(base))

	byEmail, err := repo.FindByEmail(ctx, "user-a", "john@x.com")
	require.NoError(t, err)
	assert.Equal(t, lead.ID, byEmail.ID)
}

func TestLeadRepository_OwnerIsolation(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	lead := seed(t, repo, "user-a", "John", "john@x.com", "Acme", entity.StageNew, base)

	_, err := repo.FindByID(ctx, "user-b", lead.ID)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)

	name := "Hijacked"
	_, err = repo.Update(ctx, "user-b", lead.ID, entity.LeadPatch{Name: &name}, base)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)

	_, err = repo.Delete(ctx, "user-b", lead.ID)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)

	leads, err := repo.Search(ctx, entity.LeadFilter{OwnerID: "user-b"})
	require.NoError(t, err)
	assert.Empty(t, leads)

	// same email is allowed for a different owner
	seed(t, repo, "user-b", "John", "john@x.com", "", entity.StageNew, base)

	got, err := repo.FindByID(ctx, "user-a", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.Name)
}

func TestLeadRepository_DuplicateEmailRejected(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	seed(t, repo, "user-a", "John", "john@x.com", "", entity.StageNew, base)

	dup := entity.NewLead("user-a", "Other John", "john@x.com", "", "", "", base)
	assert.Error(t, repo.Create(context.Background(), dup))
}

func TestLeadRepository_SearchCaseInsensitiveSubstring(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo, "user-a", "Jane", "jane@acme.com", "Acme Corp", entity.StageQualified, base)
	seed(t, repo, "user-a", "Bob", "bob@other.co", "Other Co", entity.StageNew, base.Add(time.Minute))

	leads, err := repo.Search(ctx, entity.LeadFilter{OwnerID: "user-a", Company: "acme"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme Corp", leads[0].Company)

	leads, err = repo.Search(ctx, entity.LeadFilter{OwnerID: "user-a", Query: "OTHER"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Bob", leads[0].Name)

	leads, err = repo.Search(ctx, entity.LeadFilter{OwnerID: "user-a", Company: "acme", Stage: entity.StageNew})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadRepository_SearchEscapesWildcards(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	seed(t, repo, "user-a", "Jane", "jane@acme.com", "Acme", entity.StageNew, base)

	leads, err := repo.Search(context.Background(), entity.LeadFilter{OwnerID: "user-a", Name: "%"})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadRepository_SearchOrderLimitOffset(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	for i, name := range []string{"first", "second", "third", "fourth"} {
		seed(t, repo, "user-a", name, name+"@x.com", "", entity.StageNew, base.Add(time.Duration(i)*time.Hour))
	}

	leads, err := repo.Search(ctx, entity.LeadFilter{OwnerID: "user-a", Limit: 2})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "fourth", leads[0].Name)
	assert.Equal(t, "third", leads[1].Name)

	leads, err = repo.Search(ctx, entity.LeadFilter{OwnerID: "user-a", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "second", leads[0].Name)

	n, err := repo.Count(ctx, entity.LeadFilter{OwnerID: "user-a"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLeadRepository_PartialUpdate(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	lead := seed(t, repo, "user-a", "John", "john@x.com", "Acme", entity.StageNew, base)

	stage := entity.StageQualified
	later := base.Add(time.Hour)
	updated, err := repo.Update(ctx, "user-a", lead.ID, entity.LeadPatch{Stage: &stage}, later)
	require.NoError(t, err)

	assert.Equal(t, entity.StageQualified, updated.Stage)
	assert.Equal(t, "John", updated.Name)
	assert.Equal(t, "Acme", updated.Company)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(base))

	empty := ""
	updated, err = repo.Update(ctx, "user-a", lead.ID, entity.LeadPatch{Company: &empty}, later)
	require.NoError(t, err)
	assert.Equal(t, "", updated.Company)
}

func TestLeadRepository_UpdateMatchesPatchApply(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	lead := seed(t, repo, "user-a", "John", "john@x.com", "Acme", entity.StageNew, base)

	name, notes, stage := "John Smith", "call back friday", entity.StageNegotiation
	patches := []entity.LeadPatch{
		{Name: &name},
		{Notes: &notes, Stage: &stage},
	}

	want := *lead
	for i, patch := range patches {
		at := base.Add(time.Duration(i+1) * time.Hour)
		patch.Apply(&want, at)

		got, err := repo.Update(ctx, "user-a", lead.ID, patch, at)
		require.NoError(t, err)

		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.OwnerID, got.OwnerID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Email, got.Email)
		assert.Equal(t, want.Company, got.Company)
		assert.Equal(t, want.Stage, got.Stage)
		assert.Equal(t, want.Notes, got.Notes)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	}
}

func TestLeadRepository_DeleteReturnsRecord(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	lead := seed(t, repo, "user-a", "John", "john@x.com", "", entity.StageNew, base)

	deleted, err := repo.Delete(ctx, "user-a", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", deleted.Name)

	_, err = repo.FindByID(ctx, "user-a", lead.ID)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestLeadRepository_Stats(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo, "user-a", "A", "a@x.com", "", entity.StageNew, base.Add(-48*time.Hour))
	seed(t, repo, "user-a", "B", "b@x.com", "", entity.StageProposal, base.Add(-time.Hour))
	seed(t, repo, "user-a", "C", "c@x.com", "", entity.StageProposal, base.Add(time.Hour))
	seed(t, repo, "user-b", "D", "d@x.com", "", entity.StageNew, base)

	counts, err := repo.CountByStage(ctx, "user-a")
	require.NoError(t, err)
	byStage := map[entity.Stage]int{}
	for _, c := range counts {
		byStage[c.Stage] = c.Count
	}
	assert.Equal(t, map[entity.Stage]int{entity.StageNew: 1, entity.StageProposal: 2}, byStage)

	dayStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	n, err := repo.CountCreatedBetween(ctx, "user-a", dayStart, dayStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	since, err := repo.CreatedSince(ctx, "user-a", base.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.True(t, since[0].Before(since[1]))
}

func TestLeadRepository_CountInStages(t *testing.T) {
	repo := NewLeadRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo, "user-a", "A", "a@x.com", "", entity.StageNew, base)
	seed(t, repo, "user-a", "B", "b@x.com", "", entity.StageProposal, base)
	seed(t, repo, "user-a", "C", "c@x.com", "", entity.StageNegotiation, base)
	seed(t, repo, "user-a", "D", "d@x.com", "", entity.StageClosedWon, base)
	seed(t, repo, "user-a", "E", "e@x.com", "", entity.StageClosedLost, base)
	seed(t, repo, "user-b", "F", "f@x.com", "", entity.StageClosedWon, base)

	n, err := repo.CountInStages(ctx, "user-a", entity.ConvertedStages)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountInStages(ctx, "user-b", entity.ConvertedStages)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CountInStages(ctx, "user-c", entity.ConvertedStages)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = repo.CountInStages(ctx, "user-a", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSessionRepository_FindUserID(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO session (token, user_id, expires_at) VALUES ($1, $2, $3), ($4, $5, $6)`,
		"live", "user-a", base.Add(time.Hour),
		"stale", "user-b", base.Add(-time.Hour))
	require.NoError(t, err)

	userID, err := repo.FindUserID(ctx, "live", base)
	require.NoError(t, err)
	assert.Equal(t, "user-a", userID)

	_, err = repo.FindUserID(ctx, "stale", base)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	_, err = repo.FindUserID(ctx, "missing", base)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%acme%", likePattern("  ACME "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestBuildWhere_OwnerAlwaysFirst(t *testing.T) {
	where, args := buildWhere(entity.LeadFilter{OwnerID: "u", Query: "x", Stage: entity.StageNew})
	assert.Contains(t, where, "owner_id = $1")
	assert.Equal(t, []any{"u", "%x%", "new"}, args)
}

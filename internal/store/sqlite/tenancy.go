package sqlite

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

type TenancyStore struct{ db *sqlx.DB }

type tenantRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt stamp     `db:"created_at"`
}

type membershipRow struct {
	TenantID  uuid.UUID `db:"tenant_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt stamp     `db:"created_at"`
}

func (s *TenancyStore) CreateTenant(ctx context.Context, t *tenancy.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)
	`, t.ID, t.Name, stamp(t.CreatedAt))
	return translate("create tenant", err)
}

func (s *TenancyStore) CreateTenantWithOwner(ctx context.Context, t *tenancy.Tenant, owner *tenancy.Membership) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)
	`, t.ID, t.Name, stamp(t.CreatedAt)); err != nil {
		return translate("create tenant", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (tenant_id, user_id, role, created_at) VALUES (?, ?, ?, ?)
	`, owner.TenantID, owner.UserID, string(owner.Role), stamp(owner.CreatedAt)); err != nil {
		return translate("add owner", err)
	}
	return translate("commit", tx.Commit())
}

func (s *TenancyStore) GetTenantByName(ctx context.Context, name string) (*tenancy.Tenant, error) {
	var r tenantRow
	err := s.db.GetContext(ctx, &r, `SELECT id, name, created_at FROM tenants WHERE name = ?`, name)
	if err != nil {
		return nil, translate("tenant "+name, err)
	}
	return &tenancy.Tenant{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.Time()}, nil
}

func (s *TenancyStore) UpsertMembership(ctx context.Context, m *tenancy.Membership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (tenant_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET role = excluded.role
	`, m.TenantID, m.UserID, string(m.Role), stamp(m.CreatedAt))
	if isForeignKey(err) {
		return apperr.NotFound("tenant %s not found", m.TenantID)
	}
	return translate("upsert membership", err)
}

func (s *TenancyStore) ListMemberships(ctx context.Context, userID string) ([]tenancy.Membership, error) {
	var rows []membershipRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT tenant_id, user_id, role, created_at
		FROM memberships
		WHERE user_id = ?
		ORDER BY created_at, tenant_id
	`, userID)
	if err != nil {
		return nil, translate("list memberships", err)
	}
	return membershipsFrom(rows), nil
}

func (s *TenancyStore) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]tenancy.Membership, error) {
	var rows []membershipRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT tenant_id, user_id, role, created_at
		FROM memberships
		WHERE tenant_id = ?
		ORDER BY user_id
	`, tenantID)
	if err != nil {
		return nil, translate("list members", err)
	}
	return membershipsFrom(rows), nil
}

func membershipsFrom(rows []membershipRow) []tenancy.Membership {
	out := make([]tenancy.Membership, 0, len(rows))
	for _, r := range rows {
		out = append(out, tenancy.Membership{
			TenantID:  r.TenantID,
			UserID:    r.UserID,
			Role:      tenancy.Role(r.Role),
			CreatedAt: r.CreatedAt.Time(),
		})
	}
	return out
}

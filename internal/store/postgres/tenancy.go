package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

type TenancyStore struct{ pool *pgxpool.Pool }

func (s *TenancyStore) CreateTenant(ctx context.Context, t *tenancy.Tenant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, created_at) VALUES ($1,$2,$3)
	`, t.ID, t.Name, t.CreatedAt)
	return translate("create tenant", err)
}

func (s *TenancyStore) CreateTenantWithOwner(ctx context.Context, t *tenancy.Tenant, owner *tenancy.Membership) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return translate("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO tenants (id, name, created_at) VALUES ($1,$2,$3)
	`, t.ID, t.Name, t.CreatedAt); err != nil {
		return translate("create tenant", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO memberships (tenant_id, user_id, role, created_at) VALUES ($1,$2,$3,$4)
	`, owner.TenantID, owner.UserID, string(owner.Role), owner.CreatedAt); err != nil {
		return translate("add owner", err)
	}
	return translate("commit", tx.Commit(ctx))
}

func (s *TenancyStore) GetTenantByName(ctx context.Context, name string) (*tenancy.Tenant, error) {
	var t tenancy.Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM tenants WHERE name = $1
	`, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, translate("tenant "+name, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (s *TenancyStore) UpsertMembership(ctx context.Context, m *tenancy.Membership) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO memberships (tenant_id, user_id, role, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, m.TenantID, m.UserID, string(m.Role), m.CreatedAt)
	if isForeignKey(err) {
		return apperr.NotFound("tenant %s not found", m.TenantID)
	}
	return translate("upsert membership", err)
}

func (s *TenancyStore) ListMemberships(ctx context.Context, userID string) ([]tenancy.Membership, error) {
	return s.memberships(ctx, "list memberships", `
		SELECT tenant_id, user_id, role, created_at
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at, tenant_id
	`, userID)
}

func (s *TenancyStore) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]tenancy.Membership, error) {
	return s.memberships(ctx, "list members", `
		SELECT tenant_id, user_id, role, created_at
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY user_id
	`, tenantID)
}

func (s *TenancyStore) memberships(ctx context.Context, op, query string, arg any) ([]tenancy.Membership, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out := []tenancy.Membership{}
	for rows.Next() {
		var (
			m    tenancy.Membership
			role string
		)
		if err := rows.Scan(&m.TenantID, &m.UserID, &role, &m.CreatedAt); err != nil {
			return nil, translate("scan membership", err)
		}
		m.Role = tenancy.Role(role)
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	return out, translate(op, rows.Err())
}

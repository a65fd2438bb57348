package tenancy

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/stock-ledger/internal/apperr"
)

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// EnsureTenant returns the tenant called name, creating it on first use.
func (s *Service) EnsureTenant(ctx context.Context, name string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("tenant name is required")
	}
	t, err := s.store.GetTenantByName(ctx, name)
	if err == nil {
		return t, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	t = &Tenant{ID: NewID(), Name: name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		if apperr.IsConflict(err) {
			// lost a creation race; the other writer's row is the tenant
			return s.store.GetTenantByName(ctx, name)
		}
		return nil, err
	}
	s.log.Info("tenant created", "tenant_id", t.ID, "name", t.Name)
	return t, nil
}

// CreateTenant registers a new tenant owned by ownerID. Unlike EnsureTenant
// it never hands out an existing tenant: a taken name is a Conflict.
func (s *Service) CreateTenant(ctx context.Context, name, ownerID string) (*Tenant, error) {
	name, ownerID = strings.TrimSpace(name), strings.TrimSpace(ownerID)
	if name == "" {
		return nil, apperr.Validation("tenant name is required")
	}
	if ownerID == "" {
		return nil, apperr.Validation("user id is required")
	}
	now := s.now().UTC()
	t := &Tenant{ID: NewID(), Name: name, CreatedAt: now}
	owner := &Membership{TenantID: t.ID, UserID: ownerID, Role: RoleOwner, CreatedAt: now}
	if err := s.store.CreateTenantWithOwner(ctx, t, owner); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "tenant %q already exists", name)
		}
		return nil, err
	}
	s.log.Info("tenant created", "tenant_id", t.ID, "name", t.Name, "owner", ownerID)
	return t, nil
}

// Bootstrap seeds a multi-tenant deployment: the tenant called name exists
// afterwards and ownerID owns it.
func (s *Service) Bootstrap(ctx context.Context, name, ownerID string) (*Tenant, error) {
	t, err := s.EnsureTenant(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddMember(ctx, t.ID, ownerID, RoleOwner); err != nil {
		return nil, err
	}
	return t, nil
}

// Invite adds userID to the caller's tenant or changes the role of an
// existing member. Owners only; an owner cannot demote themselves.
func (s *Service) Invite(ctx context.Context, scope Scope, userID string, role Role) (*Membership, error) {
	if !scope.Can(ActManageMembers) {
		return nil, apperr.Forbidden("role %q may not %s", scope.Role, ActManageMembers)
	}
	if strings.TrimSpace(userID) == scope.UserID && role != RoleOwner {
		return nil, apperr.Validation("owners cannot demote themselves")
	}
	m, err := s.AddMember(ctx, scope.TenantID, userID, role)
	if err != nil {
		return nil, err
	}
	s.log.Info("member set", "tenant_id", scope.TenantID, "user_id", m.UserID, "role", m.Role, "by", scope.UserID)
	return m, nil
}

func (s *Service) Members(ctx context.Context, scope Scope) ([]Membership, error) {
	if !scope.Can(ActManageMembers) {
		return nil, apperr.Forbidden("role %q may not %s", scope.Role, ActManageMembers)
	}
	return s.store.ListMembers(ctx, scope.TenantID)
}

func (s *Service) AddMember(ctx context.Context, tenantID uuid.UUID, userID string, role Role) (*Membership, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user id is required")
	}
	if !role.Valid() {
		return nil, apperr.Validation("unknown role %q", role)
	}
	m := &Membership{TenantID: tenantID, UserID: userID, Role: role, CreatedAt: s.now().UTC()}
	if err := s.store.UpsertMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Resolve maps an already-authenticated user to a Scope. When the user
// belongs to several tenants, hint (a tenant id) picks one; without a hint
// the first membership wins.
func (s *Service) Resolve(ctx context.Context, userID string, hint *uuid.UUID) (Scope, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Scope{}, apperr.Validation("user id is required")
	}
	ms, err := s.store.ListMemberships(ctx, userID)
	if err != nil {
		return Scope{}, err
	}
	if len(ms) == 0 {
		return Scope{}, apperr.NotFound("user %q has no tenant", userID)
	}
	if hint == nil {
		m := ms[0]
		return Scope{TenantID: m.TenantID, UserID: userID, Role: m.Role}, nil
	}
	for _, m := range ms {
		if m.TenantID == *hint {
			return Scope{TenantID: m.TenantID, UserID: userID, Role: m.Role}, nil
		}
	}
	return Scope{}, apperr.Forbidden("user %q is not a member of tenant %s", userID, *hint)
}

// Single returns the owner scope used when the service runs single-tenant.
func Single(t *Tenant) Scope {
	return Scope{TenantID: t.ID, UserID: "local", Role: RoleOwner}
}

package tenancy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/testutil"
)

func newService(t *testing.T) *tenancy.Service {
	return tenancy.NewService(testutil.SQLite(t).Tenancy, testutil.Logger())
}

func TestEnsureTenantIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.EnsureTenant(ctx, " main ")
	require.NoError(t, err)
	assert.Equal(t, "main", a.Name)
	assert.NotEqual(t, uuid.Nil, a.ID)

	b, err := svc.EnsureTenant(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = svc.EnsureTenant(ctx, "")
	assert.True(t, apperr.IsValidation(err))
}

func TestResolve(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	shop, err := svc.EnsureTenant(ctx, "shop")
	require.NoError(t, err)
	depot, err := svc.EnsureTenant(ctx, "depot")
	require.NoError(t, err)
	stranger, err := svc.EnsureTenant(ctx, "stranger")
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, shop.ID, "alice", tenancy.RoleCashier)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, depot.ID, "alice", tenancy.RoleManager)
	require.NoError(t, err)

	sc, err := svc.Resolve(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Contains(t, []uuid.UUID{shop.ID, depot.ID}, sc.TenantID)

	sc, err = svc.Resolve(ctx, "alice", &depot.ID)
	require.NoError(t, err)
	assert.Equal(t, depot.ID, sc.TenantID)
	assert.Equal(t, tenancy.RoleManager, sc.Role)
	assert.Equal(t, "alice", sc.UserID)

	_, err = svc.Resolve(ctx, "alice", &stranger.ID)
	assert.True(t, apperr.IsForbidden(err))

	_, err = svc.Resolve(ctx, "bob", nil)
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Resolve(ctx, " ", nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestAddMemberChangesRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	shop, err := svc.EnsureTenant(ctx, "shop")
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, shop.ID, "bob", tenancy.RoleCashier)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, shop.ID, "bob", tenancy.RoleOwner)
	require.NoError(t, err)

	sc, err := svc.Resolve(ctx, "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, tenancy.RoleOwner, sc.Role)

	_, err = svc.AddMember(ctx, shop.ID, "bob", "admin")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.AddMember(ctx, uuid.New(), "bob", tenancy.RoleOwner)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCreateTenantMakesCallerOwner(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	shop, err := svc.CreateTenant(ctx, " shop ", "olga")
	require.NoError(t, err)
	assert.Equal(t, "shop", shop.Name)

	sc, err := svc.Resolve(ctx, "olga", nil)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, sc.TenantID)
	assert.Equal(t, tenancy.RoleOwner, sc.Role)

	_, err = svc.CreateTenant(ctx, "shop", "mallory")
	assert.True(t, apperr.IsConflict(err))
	_, err = svc.Resolve(ctx, "mallory", nil)
	assert.True(t, apperr.IsNotFound(err), "a rejected create leaves no membership behind")

	_, err = svc.CreateTenant(ctx, "", "olga")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.CreateTenant(ctx, "depot", " ")
	assert.True(t, apperr.IsValidation(err))
}

func TestBootstrapIsRepeatable(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Bootstrap(ctx, "main", "admin")
	require.NoError(t, err)
	b, err := svc.Bootstrap(ctx, "main", "admin")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	sc, err := svc.Resolve(ctx, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, sc.TenantID)
	assert.Equal(t, tenancy.RoleOwner, sc.Role)
}

func TestInvite(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	shop, err := svc.CreateTenant(ctx, "shop", "olga")
	require.NoError(t, err)
	owner, err := svc.Resolve(ctx, "olga", nil)
	require.NoError(t, err)

	m, err := svc.Invite(ctx, owner, "mike", tenancy.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, m.TenantID)

	mike, err := svc.Resolve(ctx, "mike", nil)
	require.NoError(t, err)
	assert.Equal(t, tenancy.RoleManager, mike.Role)

	_, err = svc.Invite(ctx, mike, "carl", tenancy.RoleCashier)
	assert.True(t, apperr.IsForbidden(err), "managers cannot add members")

	_, err = svc.Invite(ctx, owner, "olga", tenancy.RoleCashier)
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Invite(ctx, owner, "carl", "admin")
	assert.True(t, apperr.IsValidation(err))

	ms, err := svc.Members(ctx, owner)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "mike", ms[0].UserID)
	assert.Equal(t, "olga", ms[1].UserID)

	_, err = svc.Members(ctx, mike)
	assert.True(t, apperr.IsForbidden(err))
}

func TestScopeCan(t *testing.T) {
	all := []tenancy.Action{
		tenancy.ActRead, tenancy.ActReceive, tenancy.ActIssue, tenancy.ActAdjust,
		tenancy.ActTransfer, tenancy.ActWriteCatalog, tenancy.ActDeleteCatalog,
		tenancy.ActManageMembers,
	}
	allowed := map[tenancy.Role][]tenancy.Action{
		tenancy.RoleOwner:   all,
		tenancy.RoleManager: all[:6],
		tenancy.RoleCashier: {tenancy.ActRead, tenancy.ActReceive, tenancy.ActIssue},
		"":                  nil,
	}
	for role, acts := range allowed {
		sc := tenancy.Scope{Role: role}
		for _, a := range all {
			assert.Equal(t, contains(acts, a), sc.Can(a), "%s %s", role, a)
		}
	}
}

func contains(acts []tenancy.Action, a tenancy.Action) bool {
	for _, x := range acts {
		if x == a {
			return true
		}
	}
	return false
}

func TestSingleScopeIsOwner(t *testing.T) {
	ten := &tenancy.Tenant{ID: uuid.New(), Name: "default"}
	sc := tenancy.Single(ten)
	assert.Equal(t, ten.ID, sc.TenantID)
	assert.True(t, sc.Can(tenancy.ActDeleteCatalog))
}

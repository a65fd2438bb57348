package tenancy

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleCashier:
		return true
	}
	return false
}

type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Membership struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Action is something a Scope may or may not be allowed to do.
type Action string

const (
	ActRead          Action = "read"
	ActReceive       Action = "receive"
	ActIssue         Action = "issue"
	ActAdjust        Action = "adjust"
	ActTransfer      Action = "transfer"
	ActWriteCatalog  Action = "write_catalog"
	ActDeleteCatalog Action = "delete_catalog"
	ActManageMembers Action = "manage_members"
)

// Scope is the resolved caller context threaded through every catalog and
// ledger call. It is never stored in package state.
type Scope struct {
	TenantID uuid.UUID
	UserID   string
	Role     Role
}

func (s Scope) Can(a Action) bool {
	switch s.Role {
	case RoleOwner:
		return true
	case RoleManager:
		return a != ActDeleteCatalog && a != ActManageMembers
	case RoleCashier:
		return a == ActRead || a == ActReceive || a == ActIssue
	}
	return false
}

// Package authz is the vault's authorization seam. The vault core never
// assumes a concrete policy engine; it only requires an Authorizer at
// construction, and audits every decision made through it.
package authz

import "sync"

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionAudit  Action = "audit"
)

// Authorizer decides whether an accessor may perform an action on records
// of a given data type. An empty dataType means the action spans types
// (reporting and audit queries).
type Authorizer interface {
	Authorize(accessorID, dataType string, action Action) bool
}

// Func adapts a plain function to the Authorizer interface.
type Func func(accessorID, dataType string, action Action) bool

func (f Func) Authorize(accessorID, dataType string, action Action) bool {
	return f(accessorID, dataType, action)
}

// Grant permits a set of actions on a set of data types. An empty DataTypes
// list means every type.
type Grant struct {
	DataTypes []string
	Actions   []Action
}

// RoleTable is a role-based Authorizer. Accessors hold roles, roles hold
// grants. There is no default-allow: an accessor with no matching grant is
// denied.
type RoleTable struct {
	mu      sync.RWMutex
	grants  map[string][]Grant
	members map[string][]string
}

func NewRoleTable() *RoleTable {
	return &RoleTable{
		grants:  map[string][]Grant{},
		members: map[string][]string{},
	}
}

// DefineRole replaces the grants for a role.
func (t *RoleTable) DefineRole(role string, grants ...Grant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.grants[role] = grants
}

// Assign adds roles to an accessor.
func (t *RoleTable) Assign(accessorID string, roles ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.members[accessorID] = append(t.members[accessorID], roles...)
}

// SetRoles replaces an accessor's roles. The HTTP layer calls this with the
// role claims of each verified token so the table mirrors the tokens.
func (t *RoleTable) SetRoles(accessorID string, roles []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.members[accessorID] = append([]string(nil), roles...)
}

func (t *RoleTable) Authorize(accessorID, dataType string, action Action) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, role := range t.members[accessorID] {
		for _, g := range t.grants[role] {
			if g.allows(dataType, action) {
				return true
			}
		}
	}
	return false
}

func (g Grant) allows(dataType string, action Action) bool {
	ok := false
	for _, a := range g.Actions {
		if a == action {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	if len(g.DataTypes) == 0 {
		return true
	}
	for _, dt := range g.DataTypes {
		if dt == dataType {
			return true
		}
	}
	return false
}

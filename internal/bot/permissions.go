package bot

import (
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// Resolver maps user identifiers to roles using the ID sets configured at
// process start plus the role persisted on the user row. The configured
// sets are immutable for the process lifetime; runtime promotions are
// persisted and picked up on the next resolution, so nothing is cached
// across events.
type Resolver struct {
	allowed map[string]struct{}
	admins  map[string]struct{}
	supers  map[string]struct{}
}

// NewResolver builds a resolver from the configured ID lists. An empty
// allow-list means every user passes the gate.
func NewResolver(allowedUsers, adminUsers, superAdminUsers []string) *Resolver {
	return &Resolver{
		allowed: toSet(allowedUsers),
		admins:  toSet(adminUsers),
		supers:  toSet(superAdminUsers),
	}
}

// Resolve returns the effective role for a user: the highest of the
// configured sets and the stored role. When an allow-list is configured and
// the user is in no set at all, resolution fails with AccessDenied before
// any role is computed.
func (r *Resolver) Resolve(userID string, storedRole tracker.Role) (tracker.Role, error) {
	_, isSuper := r.supers[userID]
	_, isAdmin := r.admins[userID]
	_, isAllowed := r.allowed[userID]

	if len(r.allowed) > 0 && !isAllowed && !isAdmin && !isSuper {
		return 0, &tracker.AccessDeniedError{UserID: userID}
	}

	role := storedRole
	if role < tracker.RoleUser {
		role = tracker.RoleUser
	}
	if isAdmin && role < tracker.RoleAdmin {
		role = tracker.RoleAdmin
	}
	if isSuper {
		role = tracker.RoleSuperAdmin
	}
	return role, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

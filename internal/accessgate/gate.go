// Package accessgate decides whether a session may enter a route. It is
// pure decision logic: no I/O, no mutation, so callers can evaluate it on
// every navigation without side effects.
package accessgate

import (
	"net/url"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/session"
)

// LoginRoute is where unauthenticated navigation is sent. The original
// path rides along in the "from" query parameter so login can return there.
const LoginRoute = "/login"

// Family groups routes that share a role requirement.
type Family string

const (
	FamilyDashboard Family = "dashboard"
	FamilyEquipment Family = "equipment"
	FamilyTeams     Family = "teams"
	FamilyRequests  Family = "requests"
	FamilyCalendar  Family = "calendar"
	FamilyProfile   Family = "profile"
)

// policy is the single source of truth for which roles may enter each
// route family. An empty set means any resolved session may enter.
var policy = map[Family][]domain.Role{
	FamilyDashboard: nil,
	FamilyEquipment: {domain.RoleAdmin, domain.RoleManager},
	FamilyTeams:     {domain.RoleAdmin, domain.RoleManager},
	FamilyRequests:  {domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician},
	FamilyCalendar:  {domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician},
	FamilyProfile:   nil,
}

// PolicyFor returns the roles allowed into a route family. A nil slice
// means every authenticated role; unknown families also return nil so a
// new screen is never accidentally locked out.
func PolicyFor(f Family) []domain.Role {
	roles := policy[f]
	if roles == nil {
		return nil
	}
	out := make([]domain.Role, len(roles))
	copy(out, roles)
	return out
}

// LandingRoute is the default destination for a role after login or after
// a silent downgrade. The switch is exhaustive over the role enum.
func LandingRoute(r domain.Role) string {
	switch r {
	case domain.RoleAdmin:
		return "/admin/dashboard"
	case domain.RoleManager:
		return "/manager/dashboard"
	case domain.RoleTechnician:
		return "/technician/dashboard"
	case domain.RoleUser:
		return "/user/dashboard"
	}
	return LoginRoute
}

// Decision is the outcome of gating one navigation.
type Decision struct {
	// Allow grants entry; the other fields are zero when set.
	Allow bool
	// ShowLoading means the session is still resolving: render neutral
	// loading UI, do not redirect yet.
	ShowLoading bool
	// RedirectTo is the route to send the user to instead.
	RedirectTo string
}

// Decide gates entry to path for the given session snapshot and the roles
// the route requires (nil or empty means any authenticated role).
//
// An authenticated user whose role is outside the set is redirected to
// their own landing route, never shown an error page.
func Decide(snap session.Snapshot, required []domain.Role, path string) Decision {
	switch snap.State {
	case session.StatePending:
		return Decision{ShowLoading: true}
	case session.StateAbsent:
		return Decision{RedirectTo: loginRedirect(path)}
	}

	if snap.User == nil {
		// Resolved without a user should not happen; treat as absent.
		return Decision{RedirectTo: loginRedirect(path)}
	}

	if len(required) == 0 {
		return Decision{Allow: true}
	}
	for _, role := range required {
		if snap.User.Role == role {
			return Decision{Allow: true}
		}
	}
	return Decision{RedirectTo: LandingRoute(snap.User.Role)}
}

// DecideFamily is Decide with the role set looked up from the policy table.
func DecideFamily(snap session.Snapshot, family Family, path string) Decision {
	return Decide(snap, policy[family], path)
}

func loginRedirect(path string) string {
	if path == "" || path == LoginRoute {
		return LoginRoute
	}
	return LoginRoute + "?from=" + url.QueryEscape(path)
}

package console

import (
	"github.com/mleroy-dev/bankdesk/auth"
	"github.com/mleroy-dev/bankdesk/session"
)

// View is a navigation target of the console.
type View int

const (
	ViewNone View = iota
	ViewLogin
	ViewAdmin
	ViewClient
)

func (v View) String() string {
	switch v {
	case ViewNone:
		return "none"
	case ViewLogin:
		return "login"
	case ViewAdmin:
		return "admin"
	case ViewClient:
		return "client"
	default:
		return "invalid"
	}
}

// Redirect maps the session snapshot to the view to render: nothing
// while the session is still resolving, the login view for anonymous
// users, the admin view for ROLE_ADMIN, the client view for everyone
// else.
func Redirect(s session.Snapshot) View {
	switch {
	case s.Loading():
		return ViewNone
	case s.State != session.StateAuthenticated || s.User == nil:
		return ViewLogin
	case s.User.Role == auth.RoleAdmin:
		return ViewAdmin
	default:
		return ViewClient
	}
}

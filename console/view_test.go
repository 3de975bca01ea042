package console_test

import (
	"testing"

	"github.com/mleroy-dev/bankdesk/auth"
	"github.com/mleroy-dev/bankdesk/console"
	"github.com/mleroy-dev/bankdesk/session"
	"github.com/stretchr/testify/require"
)

func TestRedirect(t *testing.T) {
	admin := &auth.User{Name: "A", Role: auth.RoleAdmin}
	client := &auth.User{Name: "C", Role: auth.RoleClient}

	tests := []struct {
		name string
		snap session.Snapshot
		want console.View
	}{
		{"unresolved renders nothing", session.Snapshot{State: session.StateUnknown}, console.ViewNone},
		{"authenticating renders nothing", session.Snapshot{State: session.StateAuthenticating}, console.ViewNone},
		{"anonymous goes to login", session.Snapshot{State: session.StateAnonymous}, console.ViewLogin},
		{"admin goes to admin view", session.Snapshot{State: session.StateAuthenticated, User: admin}, console.ViewAdmin},
		{"client goes to client view", session.Snapshot{State: session.StateAuthenticated, User: client}, console.ViewClient},
		{"unknown role falls back to client view", session.Snapshot{State: session.StateAuthenticated, User: &auth.User{Role: "ROLE_AUDITOR"}}, console.ViewClient},
		{"authenticated without user goes to login", session.Snapshot{State: session.StateAuthenticated}, console.ViewLogin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, console.Redirect(tc.snap))
		})
	}
}

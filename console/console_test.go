package console_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mleroy-dev/bankdesk/auth"
	"github.com/mleroy-dev/bankdesk/bank"
	"github.com/mleroy-dev/bankdesk/console"
	"github.com/mleroy-dev/bankdesk/gateway"
	"github.com/mleroy-dev/bankdesk/internal/backendfake"
	"github.com/mleroy-dev/bankdesk/session"
	"github.com/stretchr/testify/require"
)

// runScript feeds the console a scripted terminal session and returns
// everything it printed.
func runScript(t *testing.T, backend *backendfake.Backend, script string) string {
	t.Helper()

	store := session.NewStore()
	api := gateway.New(backend.URL(), store)
	sessions := session.NewManager(store, auth.NewService(api), api)
	out := &bytes.Buffer{}

	c := console.New(sessions, bank.NewService(api), strings.NewReader(script), out)
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func newBackend(t *testing.T) *backendfake.Backend {
	t.Helper()
	backend := backendfake.New()
	t.Cleanup(backend.Close)
	backend.AddUser("Alice Admin", "admin@bank.com", "pw", "ROLE_ADMIN")
	backend.AddUser("Carl Client", "client@bank.com", "pw", "ROLE_CLIENT")
	return backend
}

func TestConsole_AdminSession(t *testing.T) {
	backend := newBackend(t)
	id := backend.AddAccount("client@bank.com", 100)
	backend.SetCreditFee(10)

	script := strings.Join([]string{
		"admin@bank.com",
		"pw",
		"credit " + id + " 50",
		"logout",
		"quit",
	}, "\n") + "\n"

	out := runScript(t, backend, script)

	require.Contains(t, out, "Welcome back!")
	require.Contains(t, out, "All Bank Accounts")
	require.Contains(t, out, "client@bank.com")
	// The server applied a fee: 140, not the client-computed 150.
	require.Contains(t, out, "New balance: 140.00")
	require.NotContains(t, out, "New balance: 150.00")
	require.Contains(t, out, "Logged out.")
}

func TestConsole_CreateAccountValidation(t *testing.T) {
	backend := newBackend(t)

	script := strings.Join([]string{
		"admin@bank.com",
		"pw",
		"create not-an-email",
		"quit",
	}, "\n") + "\n"

	out := runScript(t, backend, script)

	require.Contains(t, out, "Please enter a valid email address.")
	require.Zero(t, backend.RequestsTo("/bank/accounts/create"),
		"invalid email must never issue a network call")
}

func TestConsole_CreateAccountSuccess(t *testing.T) {
	backend := newBackend(t)

	script := strings.Join([]string{
		"admin@bank.com",
		"pw",
		"create new@bank.com",
		"list",
		"quit",
	}, "\n") + "\n"

	out := runScript(t, backend, script)

	require.Contains(t, out, "Account successfully created for new@bank.com")
	require.Contains(t, out, "new@bank.com")
}

func TestConsole_ClientSession(t *testing.T) {
	backend := newBackend(t)
	backend.AddAccount("client@bank.com", 42)

	script := strings.Join([]string{
		"client@bank.com",
		"pw",
		"refresh",
		"quit",
	}, "\n") + "\n"

	out := runScript(t, backend, script)

	require.Contains(t, out, "My Account")
	require.Contains(t, out, "42.00")
	require.NotContains(t, out, "All Bank Accounts")
}

func TestConsole_RejectedLogin(t *testing.T) {
	backend := newBackend(t)

	script := strings.Join([]string{
		"admin@bank.com",
		"wrong",
		"quit",
	}, "\n") + "\n"

	out := runScript(t, backend, script)

	require.Contains(t, out, "Invalid email or password.")
	require.NotContains(t, out, "Welcome back!")
}

func TestConsole_EOFExitsCleanly(t *testing.T) {
	backend := newBackend(t)
	out := runScript(t, backend, "")
	require.Contains(t, out, "Bank Login")
}

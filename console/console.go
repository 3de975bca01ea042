// Package console renders the banking views on a terminal: the login
// prompt, the admin account table and the client's own account.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mleroy-dev/bankdesk/auth"
	"github.com/mleroy-dev/bankdesk/bank"
	"github.com/mleroy-dev/bankdesk/gateway"
	"github.com/mleroy-dev/bankdesk/internal/validate"
	"github.com/mleroy-dev/bankdesk/session"
	"github.com/pkg/errors"
)

var errQuit = errors.New("quit")

// Console drives the interactive loop. It holds no session state of
// its own: every iteration re-reads the session snapshot, so a forced
// logout (401, expiry) lands the user back on the login view at the
// next prompt.
type Console struct {
	sessions *session.Manager
	bank     *bank.Service
	in       *bufio.Reader
	out      io.Writer
}

func New(sessions *session.Manager, bankService *bank.Service, in io.Reader, out io.Writer) *Console {
	return &Console{
		sessions: sessions,
		bank:     bankService,
		in:       bufio.NewReader(in),
		out:      out,
	}
}

// Run resolves the session and renders views until the user quits or
// the input closes.
func (c *Console) Run(ctx context.Context) error {
	c.sessions.Restore(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		var err error
		switch Redirect(c.sessions.Snapshot()) {
		case ViewLogin:
			err = c.loginView(ctx)
		case ViewAdmin:
			err = c.adminView(ctx)
		case ViewClient:
			err = c.clientView(ctx)
		default:
			// Restore and Login settle synchronously, so there is
			// never anything to await here.
			continue
		}

		if errors.Is(err, io.EOF) || errors.Is(err, errQuit) {
			fmt.Fprintln(c.out, "Bye.")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) loginView(ctx context.Context) error {
	fmt.Fprintf(c.out, "\n%sBank Login%s (or 'quit')\n", Cyan, ResetColor)

	email, err := c.prompt("Email: ")
	if err != nil {
		return err
	}
	if email == "quit" || email == "exit" {
		return errQuit
	}

	password, err := c.prompt("Password: ")
	if err != nil {
		return err
	}

	if err := c.sessions.Login(ctx, email, password); err != nil {
		c.failure(err, "Failed to login.")
		return nil
	}

	c.success("Welcome back!")
	return nil
}

func (c *Console) adminView(ctx context.Context) error {
	snap := c.sessions.Snapshot()
	fmt.Fprintf(c.out, "\n%sAll Bank Accounts%s — signed in as %s\n", Cyan, ResetColor, snap.User.Name)

	if accounts, err := c.bank.AllAccounts(ctx); err != nil {
		c.failure(err, "Failed to load accounts.")
	} else {
		c.renderAccounts(accounts)
	}

	for {
		// The expiry timer or a 401 may have torn the session down
		// since the last command.
		if c.sessions.Snapshot().State != session.StateAuthenticated {
			return nil
		}

		line, err := c.prompt(Gray + "admin> " + ResetColor)
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "help":
			c.adminHelp()

		case "list", "refresh":
			accounts, err := c.bank.AllAccounts(ctx)
			if err != nil {
				c.failure(err, "Failed to load accounts.")
				continue
			}
			c.renderAccounts(accounts)

		case "search":
			if len(args) != 2 {
				c.failure(nil, "Usage: search <owner-email-substring>")
				continue
			}
			accounts, err := c.bank.AllAccounts(ctx)
			if err != nil {
				c.failure(err, "Failed to load accounts.")
				continue
			}
			c.renderAccounts(filterByOwner(accounts, args[1]))

		case "show":
			if len(args) != 2 {
				c.failure(nil, "Usage: show <account-id>")
				continue
			}
			accounts, err := c.bank.AllAccounts(ctx)
			if err != nil {
				c.failure(err, "Failed to load accounts.")
				continue
			}
			found := false
			for _, account := range accounts {
				if account.ID == args[1] {
					c.renderAccounts([]bank.Account{account})
					found = true
					break
				}
			}
			if !found {
				c.failure(nil, "No account found for id '"+args[1]+"'.")
			}

		case "create":
			if len(args) != 2 {
				c.failure(nil, "Usage: create <owner-email>")
				continue
			}
			account, err := c.bank.CreateAccount(ctx, args[1])
			if err != nil {
				c.failure(err, "Failed to create account.")
				continue
			}
			c.success("Account successfully created for " + account.OwnerEmail)

		case "credit", "debit":
			c.mutate(ctx, args)

		case "logout":
			c.sessions.Logout(ctx)
			c.success("Logged out.")
			return nil

		case "quit", "exit":
			return errQuit

		default:
			c.failure(nil, "Unknown command '"+args[0]+"'. Try 'help'.")
		}
	}
}

func (c *Console) clientView(ctx context.Context) error {
	snap := c.sessions.Snapshot()
	fmt.Fprintf(c.out, "\n%sMy Account%s — signed in as %s\n", Cyan, ResetColor, snap.User.Name)

	if account, err := c.bank.MyAccount(ctx); err != nil {
		c.failure(err, "Failed to load your account.")
	} else {
		c.renderAccounts([]bank.Account{account})
	}

	for {
		if c.sessions.Snapshot().State != session.StateAuthenticated {
			return nil
		}

		line, err := c.prompt(Gray + "client> " + ResetColor)
		if err != nil {
			return err
		}

		switch line {
		case "":
			continue
		case "help":
			fmt.Fprintln(c.out, "Commands: refresh, logout, quit")
		case "refresh":
			account, err := c.bank.MyAccount(ctx)
			if err != nil {
				c.failure(err, "Failed to load your account.")
				continue
			}
			c.renderAccounts([]bank.Account{account})
		case "logout":
			c.sessions.Logout(ctx)
			c.success("Logged out.")
			return nil
		case "quit", "exit":
			return errQuit
		default:
			c.failure(nil, "Unknown command '"+line+"'. Try 'help'.")
		}
	}
}

// mutate handles the credit and debit commands. The rendered balance
// is the one the server returned, never a locally computed figure.
func (c *Console) mutate(ctx context.Context, args []string) {
	action := bank.Action(args[0])
	if len(args) != 3 {
		c.failure(nil, fmt.Sprintf("Usage: %s <account-id> <amount>", action))
		return
	}

	amount, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		c.failure(nil, "Amount must be a number.")
		return
	}

	account, err := c.bank.UpdateBalance(ctx, args[1], amount, action)
	if err != nil {
		c.failure(err, fmt.Sprintf("The %s failed.", action))
		return
	}

	direction := "to"
	if action == bank.ActionDebit {
		direction = "from"
	}
	c.success(fmt.Sprintf("%.2f %sed %s %s's account. New balance: %.2f",
		amount, action, direction, account.OwnerEmail, account.Balance))
}

func (c *Console) adminHelp() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  list                     show all accounts")
	fmt.Fprintln(c.out, "  search <term>            filter accounts by owner email")
	fmt.Fprintln(c.out, "  show <account-id>        show one account")
	fmt.Fprintln(c.out, "  create <owner-email>     open an account")
	fmt.Fprintln(c.out, "  credit <id> <amount>     credit an account")
	fmt.Fprintln(c.out, "  debit <id> <amount>      debit an account")
	fmt.Fprintln(c.out, "  logout, quit")
}

func (c *Console) renderAccounts(accounts []bank.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(c.out, Gray+"No accounts."+ResetColor)
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tBALANCE")
	for _, account := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", account.ID, account.OwnerEmail, account.Balance)
	}
	tw.Flush()
}

func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) success(message string) {
	fmt.Fprintln(c.out, Green+message+ResetColor)
}

// failure renders err as a transient notification. A nil err renders
// the fallback as-is.
func (c *Console) failure(err error, fallback string) {
	fmt.Fprintln(c.out, Red+errorMessage(err, fallback)+ResetColor)
}

func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var ve *validate.Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	if msg := gateway.ErrorMessage(err); msg != "" {
		return msg
	}
	switch {
	case errors.Is(err, auth.InvalidCredentialsErr):
		return "Invalid email or password."
	case errors.Is(err, bank.MutationInFlightErr):
		return "Another update is already running for this account."
	}
	return fallback
}

func filterByOwner(accounts []bank.Account, term string) []bank.Account {
	term = strings.ToLower(term)
	filtered := make([]bank.Account, 0, len(accounts))
	for _, account := range accounts {
		if strings.Contains(strings.ToLower(account.OwnerEmail), term) {
			filtered = append(filtered, account)
		}
	}
	return filtered
}

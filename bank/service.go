package bank

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/mleroy-dev/bankdesk/gateway"
	"github.com/mleroy-dev/bankdesk/internal/validate"
	"github.com/pkg/errors"
)

// Service performs the bank account calls. Balance mutations are
// serialized per account: a second credit/debit on an account whose
// mutation is still outstanding fails fast with MutationInFlightErr
// instead of racing it.
type Service struct {
	api *gateway.Client

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(api *gateway.Client) *Service {
	return &Service{
		api:      api,
		inFlight: make(map[string]struct{}),
	}
}

// CreateAccount opens an account for ownerEmail. The email is checked
// locally first; an invalid one never issues a request.
func (s *Service) CreateAccount(ctx context.Context, ownerEmail string) (Account, error) {
	if err := validate.Email("ownerEmail", ownerEmail); err != nil {
		return Account{}, err
	}

	var account Account
	path := "/bank/accounts/create?ownerEmail=" + url.QueryEscape(ownerEmail)
	if err := s.api.Post(ctx, path, nil, &account); err != nil {
		return Account{}, errors.Wrap(err, "[Service.CreateAccount] create request")
	}
	return account, nil
}

// AllAccounts lists every account. Admin only.
func (s *Service) AllAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.api.Get(ctx, "/bank/accounts/all", &accounts); err != nil {
		return nil, errors.Wrap(err, "[Service.AllAccounts] list request")
	}
	return accounts, nil
}

// MyAccount fetches the authenticated user's own account.
func (s *Service) MyAccount(ctx context.Context) (Account, error) {
	var account Account
	if err := s.api.Get(ctx, "/bank/accounts/mine", &account); err != nil {
		return Account{}, errors.Wrap(err, "[Service.MyAccount] mine request")
	}
	return account, nil
}

// UpdateBalance credits or debits the account by a strictly positive
// amount. The returned account carries the server's authoritative
// balance.
func (s *Service) UpdateBalance(ctx context.Context, accountID string, amount float64, action Action) (Account, error) {
	if err := validate.Required("accountId", accountID); err != nil {
		return Account{}, err
	}
	if err := validate.PositiveAmount("amount", amount); err != nil {
		return Account{}, err
	}
	if action != ActionCredit && action != ActionDebit {
		return Account{}, UnknownActionErr
	}

	if !s.begin(accountID) {
		return Account{}, MutationInFlightErr
	}
	defer s.end(accountID)

	path := fmt.Sprintf("/bank/accounts/%s/%s?amount=%s",
		url.PathEscape(accountID), action, url.QueryEscape(formatAmount(amount)))

	var account Account
	if err := s.api.Patch(ctx, path, &account); err != nil {
		return Account{}, errors.Wrapf(err, "[Service.UpdateBalance] %s request", action)
	}
	return account, nil
}

func (s *Service) begin(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[accountID]; busy {
		return false
	}
	s.inFlight[accountID] = struct{}{}
	return true
}

func (s *Service) end(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, accountID)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

package auth

import (
	"context"
	"time"

	"github.com/mleroy-dev/bankdesk/gateway"
	"github.com/pkg/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"` // milliseconds
}

// Service is the stateless REST wrapper for the /auth endpoints.
type Service struct {
	api       *gateway.Client
	validator *Validator
}

func NewService(api *gateway.Client) *Service {
	return &Service{
		api:       api,
		validator: NewValidator(),
	}
}

// Login exchanges credentials for a token. A 401 on this call means
// the credentials were rejected, not that a session died, so the
// request is exempt from the gateway's forced-logout interception.
func (s *Service) Login(ctx context.Context, email, password string) (Credentials, error) {
	if err := s.validator.ValidateCredentials(email, password); err != nil {
		return Credentials{}, err
	}

	var resp loginResponse
	err := s.api.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp, gateway.WithoutLogoutOn401())
	if err != nil {
		if gateway.IsUnauthorized(err) {
			return Credentials{}, InvalidCredentialsErr
		}
		return Credentials{}, errors.Wrap(err, "[Service.Login] login request")
	}

	return Credentials{
		Token:     resp.Token,
		ExpiresIn: time.Duration(resp.ExpiresIn) * time.Millisecond,
	}, nil
}

// Logout asks the backend to invalidate the current session. Callers
// treat it as best-effort: the local session is torn down regardless.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		return errors.Wrap(err, "[Service.Logout] logout request")
	}
	return nil
}

// Me resolves the identity behind the current token.
func (s *Service) Me(ctx context.Context) (User, error) {
	var user User
	if err := s.api.Get(ctx, "/auth/me", &user); err != nil {
		if gateway.IsUnauthorized(err) {
			return User{}, UnauthenticatedErr
		}
		return User{}, errors.Wrap(err, "[Service.Me] me request")
	}
	return user, nil
}

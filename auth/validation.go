package auth

import "github.com/mleroy-dev/bankdesk/internal/validate"

// Validator provides the client-side credential checks. Anything it
// rejects never reaches the network.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateCredentials(email, password string) error {
	if err := validate.Email("email", email); err != nil {
		return err
	}
	return validate.Required("password", password)
}

package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid email or password")
	UnauthenticatedErr    = errors.New("no valid credential")
)

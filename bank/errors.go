package bank

import "errors"

var (
	MutationInFlightErr = errors.New("another balance update is already in flight for this account")
	UnknownActionErr    = errors.New("unknown balance action")
)

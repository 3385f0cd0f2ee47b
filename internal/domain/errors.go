package domain

import (
	"errors"
	"fmt"
)

// ErrCollaboratorDisabled is returned when an optional upstream (quotes, LLM)
// has no credentials configured.
var ErrCollaboratorDisabled = errors.New("collaborator disabled")

// InsufficientDataError is non-fatal: the indicator bundle returned alongside
// it is still valid, with unfilled windows left null.
type InsufficientDataError struct {
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need %d bars, got %d", e.Required, e.Got)
}

type UpstreamProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *UpstreamProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Provider, e.Op)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *UpstreamProviderError) Unwrap() error {
	return e.Err
}

type InvalidSymbolError struct {
	Symbol string
	Reason string
}

func (e *InvalidSymbolError) Error() string {
	if e.Symbol == "" {
		return "invalid symbol: " + e.Reason
	}
	return fmt.Sprintf("invalid symbol %q: %s", e.Symbol, e.Reason)
}

func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamProviderError
	return errors.As(err, &target)
}

func IsInvalidSymbol(err error) bool {
	var target *InvalidSymbolError
	return errors.As(err, &target)
}

package providers

import (
	"context"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// Provider answers a search with priced flight pairs. The development
// upstream fans a search out to every provider and streams the union.
type Provider interface {
	Name() string
	Search(ctx context.Context, params models.SearchParams) ([]models.Flight, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

package collector

import (
	"context"

	"github.com/rs/zerolog/log"

	"TickerSentinel/internal/model"
	"TickerSentinel/internal/retry"
)

const opSymbolSearch = "symbol search"

// TickerResolver maps free-text search input to the first matching ticker.
type TickerResolver struct {
	API    API
	Policy retry.Policy
}

// NewTickerResolver creates a resolver using the given retry policy.
func NewTickerResolver(api API, policy retry.Policy) *TickerResolver {
	return &TickerResolver{API: api, Policy: policy}
}

// Resolve returns the symbol of the first search candidate. ok is false when the search
// returned no usable candidate; err is a *RetrievalError when the search call itself failed.
func (r *TickerResolver) Resolve(ctx context.Context, searchText string) (ticker string, ok bool, err error) {
	result, err := retry.Value(ctx, r.Policy, opSymbolSearch, func(ctx context.Context) (*model.SearchResult, error) {
		return r.API.SymbolSearch(ctx, searchText, 1)
	})
	if err != nil {
		return "", false, &RetrievalError{Op: opSymbolSearch, SearchText: searchText, Err: err}
	}

	ticker, ok = result.FirstSymbol()
	if !ok {
		log.Info().Str("search", searchText).Msg("symbol search returned no match")
		return "", false, nil
	}
	log.Debug().Str("search", searchText).Str("ticker", ticker).Msg("ticker resolved")
	return ticker, true, nil
}

package model

import "strings"

// SymbolMatch is one candidate returned by a symbol search.
type SymbolMatch struct {
	Symbol     string `json:"1. symbol"`
	Name       string `json:"2. name"`
	Type       string `json:"3. type"`
	Region     string `json:"4. region"`
	Currency   string `json:"8. currency"`
	MatchScore string `json:"9. matchScore"`
}

// SearchResult holds the candidates of a symbol search in the order returned.
type SearchResult struct {
	BestMatches []SymbolMatch `json:"bestMatches"`
}

// FirstSymbol returns the symbol of the first candidate, if any.
func (r *SearchResult) FirstSymbol() (string, bool) {
	if r == nil || len(r.BestMatches) == 0 {
		return "", false
	}
	symbol := strings.TrimSpace(r.BestMatches[0].Symbol)
	if symbol == "" {
		return "", false
	}
	return symbol, true
}

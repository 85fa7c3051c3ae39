package postgres

import (
	"fmt"
	"regexp"
	"strings"
)

// tsqueryToken accepts tokens that are safe to embed in to_tsquery syntax.
// Tokens with other characters are dropped rather than escaped.
var tsqueryToken = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// TSQueryConverter turns expanded query tokens into Postgres to_tsquery
// syntax (tokens OR-joined). Conversion fails when no token survives
// sanitization, which callers treat as "full-text tier unavailable".
type TSQueryConverter struct{}

func NewTSQueryConverter() TSQueryConverter {
	return TSQueryConverter{}
}

func (TSQueryConverter) Convert(tokens []string) (string, error) {
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if tsqueryToken.MatchString(token) {
			cleaned = append(cleaned, token)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("no tokens usable for tsquery")
	}
	return strings.Join(cleaned, " | "), nil
}

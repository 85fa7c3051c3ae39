package expansion

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaults is the built-in brand vocabulary of the archive. Keys are root
// tokens; values are well-known model and era tokens that a query for the
// root should also retrieve. Read-only after startup.
var defaults = map[string][]string{
	"porsche":   {"911", "356", "912", "930", "964", "993", "carrera", "targa", "gt3", "boxster", "cayman"},
	"ferrari":   {"250", "275", "308", "328", "365", "dino", "daytona", "testarossa"},
	"jaguar":    {"e-type", "d-type", "xk120", "xk140", "xk150", "xj6"},
	"mercedes":  {"300sl", "190sl", "280se", "gullwing", "pagoda"},
	"alfa":      {"giulia", "giulietta", "spider", "montreal"},
	"bmw":       {"2002", "e9", "m1", "isetta"},
	"chevrolet": {"corvette", "camaro", "chevelle", "impala"},
	"ford":      {"mustang", "gt40", "thunderbird", "bronco"},
	"lancia":    {"stratos", "fulvia", "delta", "aurelia"},
	"datsun":    {"240z", "260z", "280z", "510"},
}

type synonymsFile struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// Load returns the synonym expansion table: the built-in vocabulary merged
// with an optional YAML overlay. The overlay unions entries into the
// defaults; it never removes tokens. An empty path loads the defaults only.
func Load(path string) (map[string][]string, error) {
	table := make(map[string][]string, len(defaults))
	for root, tokens := range defaults {
		table[root] = append([]string(nil), tokens...)
	}
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}
	var file synonymsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse synonyms file: %w", err)
	}

	for root, tokens := range file.Synonyms {
		root = strings.ToLower(strings.TrimSpace(root))
		if root == "" {
			continue
		}
		table[root] = union(table[root], tokens)
	}
	return table, nil
}

func union(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	out := make([]string, 0, len(existing)+len(extra))
	add := func(token string) {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			return
		}
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	for _, token := range existing {
		add(token)
	}
	for _, token := range extra {
		add(token)
	}
	return out
}

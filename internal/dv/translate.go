package dv

import (
	"fmt"
	"sort"
	"strings"
)

// TranslateRule maps one decimal flag value to its name.
type TranslateRule struct {
	Value uint64
	Name  string
}

// TranslateTable renders a numeric error-flag field as flag names. Rules are
// evaluated from the largest value down with cumulative subtraction: each
// recognized flag value is subtracted once and the remainder keeps matching
// smaller rules. A zero value renders as Default ("OK"), an unrecognized
// remainder as OTHER(n).
type TranslateTable struct {
	Default string
	Rules   []TranslateRule
}

// NewTranslateTable copies and orders the rules descending by value.
func NewTranslateTable(def string, rules []TranslateRule) TranslateTable {
	sorted := make([]TranslateRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	return TranslateTable{Default: def, Rules: sorted}
}

// Lookup translates the value into space-joined flag names.
func (t TranslateTable) Lookup(v uint64) string {
	remaining := v
	var parts []string
	for _, rule := range t.Rules {
		if rule.Value == 0 || remaining < rule.Value {
			continue
		}
		parts = append(parts, rule.Name)
		remaining -= rule.Value
	}
	if remaining != 0 {
		parts = append(parts, fmt.Sprintf("OTHER(%d)", remaining))
	}
	if len(parts) == 0 {
		return t.Default
	}
	return strings.Join(parts, " ")
}

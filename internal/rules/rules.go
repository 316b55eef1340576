// Package rules holds the ordered description-categorization rule table.
//
// Rules are evaluated in order and the first match wins. The table is never
// sorted or deduplicated: a rule that repeats an earlier pattern is unreachable
// but is kept so that the order of the table is exactly what the user wrote.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Rule maps a case-insensitive pattern to a label.
type Rule struct {
	Pattern string
	Label   string
	re      *regexp.Regexp
}

// NewRule compiles pattern case-insensitively.
func NewRule(pattern, label string) (Rule, error) {
	if pattern == "" {
		return Rule{}, fmt.Errorf("empty pattern for label %q", label)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}
	return Rule{Pattern: pattern, Label: label, re: re}, nil
}

// MustRule is NewRule that panics on an invalid pattern.
func MustRule(pattern, label string) Rule {
	r, err := NewRule(pattern, label)
	if err != nil {
		panic(err)
	}
	return r
}

// Match reports whether description matches the rule.
func (r Rule) Match(description string) bool {
	return r.re != nil && r.re.MatchString(description)
}

// Table is an ordered list of rules. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	rules  []Rule
	logger *log.Logger
}

// NewTable creates a table holding rules in the given order.
func NewTable(rules ...Rule) *Table {
	t := &Table{rules: make([]Rule, len(rules))}
	copy(t.rules, rules)
	return t
}

// SetLogger enables debug logging of classification decisions.
func (t *Table) SetLogger(l *log.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = l
}

// Classify returns the label of the first rule matching description, or "".
func (t *Table) Classify(description string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.rules {
		if r.Match(description) {
			if t.logger != nil {
				t.logger.Debug("auto-categorized", "description", description, "label", r.Label)
			}
			return r.Label
		}
	}
	if t.logger != nil {
		t.logger.Debug("no auto-categorization", "description", description)
	}
	return ""
}

// Prepend adds a rule ahead of every existing rule.
func (t *Table) Prepend(pattern, label string) error {
	r, err := NewRule(pattern, label)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = append([]Rule{r}, t.rules...)
	if t.logger != nil {
		t.logger.Info("added categorization rule", "pattern", pattern, "label", label)
	}
	return nil
}

// Rules returns a copy of the table in evaluation order.
func (t *Table) Rules() []Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rules)
}

// Shadowed returns the indexes of rules whose pattern already appears earlier
// in the table, ignoring case. Such rules can never be selected. Patterns with
// escapes are compared exactly since \d and \D differ only by case.
func (t *Table) Shadowed() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool, len(t.rules))
	var out []int
	for i, r := range t.rules {
		key := r.Pattern
		if !strings.Contains(key, `\`) {
			key = strings.ToUpper(key)
		}
		if seen[key] {
			out = append(out, i)
			continue
		}
		seen[key] = true
	}
	return out
}

package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of user rules (rules/categorization-rules.yaml).
// Rules are listed highest precedence first.
type File struct {
	Rules []FileRule `yaml:"rules"`
}

// FileRule is one user rule.
type FileRule struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// LoadFile reads a rules file. A missing file yields an empty File.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return &f, nil
}

// SaveFile writes a rules file, creating its directory if needed.
func SaveFile(path string, f *File) error {
	if f.Rules == nil {
		f.Rules = []FileRule{}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating rules dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}

// Prepend puts a rule at the head of the file.
func (f *File) Prepend(pattern, label string) {
	f.Rules = append([]FileRule{{Pattern: pattern, Label: label}}, f.Rules...)
}

// Apply prepends the file's rules to t so that the first rule in the file
// ends up first in the table.
func (f *File) Apply(t *Table) error {
	for i := len(f.Rules) - 1; i >= 0; i-- {
		r := f.Rules[i]
		if err := t.Prepend(r.Pattern, r.Label); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return nil
}

// Load builds the working table: user rules from path ahead of the defaults
// (or alone when includeDefaults is false).
func Load(path string, includeDefaults bool) (*Table, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	t := NewTable()
	if includeDefaults {
		t = Default()
	}
	if err := f.Apply(t); err != nil {
		return nil, fmt.Errorf("applying %s: %w", path, err)
	}
	return t, nil
}

// Add prepends a rule to both the table and the rules file at path.
// The file is only written once the pattern compiles.
func Add(t *Table, path, pattern, label string) error {
	if _, err := NewRule(pattern, label); err != nil {
		return err
	}
	f, err := LoadFile(path)
	if err != nil {
		return err
	}
	f.Prepend(pattern, label)
	if err := SaveFile(path, f); err != nil {
		return err
	}
	return t.Prepend(pattern, label)
}

package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"rtfdclip/pkg/history"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModeRegex
	FilterModeFuzzy
)

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

func (f *StringFilter) Match(s string) bool {
	switch f.Mode {
	case FilterModeNone:
		return true
	case FilterModeExact:
		return strings.EqualFold(s, f.Pattern)
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	case FilterModeFuzzy:
		return FuzzyMatch(f.Pattern, s)
	default:
		return true
	}
}

// FuzzyMatch reports whether every rune of pattern appears in text in
// order, ignoring case.
func FuzzyMatch(pattern, text string) bool {
	if pattern == "" {
		return true
	}
	p := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(text) {
		if r == p[i] {
			i++
			if i == len(p) {
				return true
			}
		}
	}
	return false
}

// EntryFilter selects history entries. Zero fields match everything.
type EntryFilter struct {
	Text            string
	TextRegex       string
	TextFuzzy       string
	Since           time.Duration
	WithAttachments bool
}

// IsZero reports whether the filter matches every entry.
func (f *EntryFilter) IsZero() bool {
	return *f == EntryFilter{}
}

// Compile validates the patterns and returns the matcher.
func (f *EntryFilter) Compile(now time.Time) (func(history.Entry) bool, error) {
	var text []*StringFilter
	for _, p := range []struct {
		pattern string
		mode    FilterMode
	}{
		{f.Text, FilterModeContains},
		{f.TextRegex, FilterModeRegex},
		{f.TextFuzzy, FilterModeFuzzy},
	} {
		if p.pattern == "" {
			continue
		}
		sf, err := NewStringFilter(p.pattern, p.mode)
		if err != nil {
			return nil, err
		}
		text = append(text, sf)
	}

	var cutoff time.Time
	if f.Since > 0 {
		cutoff = now.Add(-f.Since)
	}
	withAttachments := f.WithAttachments

	return func(e history.Entry) bool {
		if !cutoff.IsZero() && e.CreatedAt.Before(cutoff) {
			return false
		}
		if withAttachments && e.Attachments == 0 {
			return false
		}
		for _, sf := range text {
			if !sf.Match(e.Plain) {
				return false
			}
		}
		return true
	}, nil
}

// Apply returns the entries f matches, keeping their order.
func (f *EntryFilter) Apply(entries []history.Entry, now time.Time) ([]history.Entry, error) {
	match, err := f.Compile(now)
	if err != nil {
		return nil, err
	}
	filtered := []history.Entry{}
	for _, e := range entries {
		if match(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

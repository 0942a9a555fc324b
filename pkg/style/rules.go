// Package style post-processes model replies in a persona's voice: trims to
// the persona's chat length, applies its removal and formatter transforms,
// and decorates with emoticons, expressions and end phrases.
//
// Transforms are declarative data interpreted here, so persisted personas
// never carry executable code.
package style

import (
	"errors"
	"fmt"
	"regexp"
)

// ChatLength is how much of a reply a persona keeps.
type ChatLength string

const (
	Short  ChatLength = "short"
	Normal ChatLength = "normal"
	Long   ChatLength = "long"
)

// Valid reports whether l is one of the known lengths. Empty counts as valid
// and behaves like Normal.
func (l ChatLength) Valid() bool {
	switch l {
	case "", Short, Normal, Long:
		return true
	}
	return false
}

// TransformKind tags the Transform variants.
type TransformKind string

const (
	// Replace substitutes every match of Pattern with Replacement.
	Replace TransformKind = "replace"
	// Remove deletes every match of Pattern.
	Remove TransformKind = "remove"
)

// Transform is a regular-expression rewrite. Replacement may use $1-style
// group references.
type Transform struct {
	Kind        TransformKind `json:"kind"`
	Pattern     string        `json:"pattern"`
	Replacement string        `json:"replacement,omitempty"`
	IgnoreCase  bool          `json:"ignoreCase,omitempty"`
}

// Replacing builds a case-insensitive Replace transform.
func Replacing(pattern, replacement string) Transform {
	return Transform{Kind: Replace, Pattern: pattern, Replacement: replacement, IgnoreCase: true}
}

// Removing builds a case-insensitive Remove transform.
func Removing(pattern string) Transform {
	return Transform{Kind: Remove, Pattern: pattern, IgnoreCase: true}
}

func (t Transform) compile() (*regexp.Regexp, error) {
	expr := t.Pattern
	if t.IgnoreCase {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// Validate checks the tag and that the pattern compiles.
func (t Transform) Validate() error {
	switch t.Kind {
	case Replace, Remove:
	default:
		return fmt.Errorf("unknown transform kind %q", t.Kind)
	}
	if t.Pattern == "" {
		return errors.New("transform pattern is empty")
	}
	if _, err := t.compile(); err != nil {
		return fmt.Errorf("transform pattern %q: %w", t.Pattern, err)
	}
	return nil
}

// Apply runs the transform over s.
func (t Transform) Apply(s string) (string, error) {
	re, err := t.compile()
	if err != nil {
		return s, err
	}
	switch t.Kind {
	case Replace:
		return re.ReplaceAllString(s, t.Replacement), nil
	case Remove:
		return re.ReplaceAllString(s, ""), nil
	}
	return s, fmt.Errorf("unknown transform kind %q", t.Kind)
}

// Rules is a persona's response style.
type Rules struct {
	Emoticons   []string    `json:"emoticons,omitempty"`
	Expressions []string    `json:"expressions,omitempty"`
	EndPhrases  []string    `json:"endPhrases,omitempty"`
	Removals    []Transform `json:"removals,omitempty"`
	Formatters  []Transform `json:"formatters,omitempty"`
}

// Validate reports the first removal or formatter that cannot run.
func (r Rules) Validate() error {
	for i, t := range r.Removals {
		if t.Kind != Remove {
			return fmt.Errorf("removals[%d]: kind must be %q", i, Remove)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("removals[%d]: %w", i, err)
		}
	}
	for i, t := range r.Formatters {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("formatters[%d]: %w", i, err)
		}
	}
	return nil
}

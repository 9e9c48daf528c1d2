package ignore

import (
	"strings"
)

// HiddenRule is the pattern text Match reports for the hidden-segment rule.
const HiddenRule = ".*"

// PatternSet is an immutable, de-duplicated list of rules: the built-in
// defaults followed by caller patterns.
type PatternSet struct {
	rules []Rule
}

// New builds a PatternSet from the default table and the given extra patterns.
// Duplicates collapse to the first occurrence. A malformed pattern returns a
// *core.ConfigurationError.
func New(extra ...string) (*PatternSet, error) {
	all := make([]string, 0, len(defaultPatterns)+len(extra))
	all = append(all, defaultPatterns[:]...)
	all = append(all, extra...)

	seen := make(map[string]struct{}, len(all))
	rules := make([]Rule, 0, len(all))
	for _, p := range all {
		rule, err := ParseRule(p)
		if err != nil {
			return nil, err
		}
		k := rule.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rules = append(rules, rule)
	}
	return &PatternSet{rules: rules}, nil
}

// IsIgnored reports whether relativePath is excluded.
func (s *PatternSet) IsIgnored(relativePath string, isDir bool) bool {
	_, ok := s.Match(relativePath, isDir)
	return ok
}

// Match returns the pattern that excludes relativePath, or false when the
// path is kept. The hidden-segment rule is reported as HiddenRule.
func (s *PatternSet) Match(relativePath string, isDir bool) (string, bool) {
	segs := normalize(relativePath)
	if len(segs) == 0 {
		return "", false
	}
	for _, seg := range segs {
		if strings.HasPrefix(seg, ".") {
			return HiddenRule, true
		}
	}
	for _, r := range s.rules {
		if r.match(segs, isDir) {
			return r.Pattern, true
		}
	}
	return "", false
}

// Patterns returns the pattern text of every rule in evaluation order.
func (s *PatternSet) Patterns() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Pattern
	}
	return out
}

// Rules returns a copy of the parsed rules in evaluation order.
func (s *PatternSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of distinct rules.
func (s *PatternSet) Len() int {
	return len(s.rules)
}

// MatchPattern reports whether path matches a single pattern, applying the
// same kind derivation as a PatternSet but not the hidden-segment rule.
// An unparseable pattern never matches.
func MatchPattern(path, pattern string) bool {
	rule, err := ParseRule(pattern)
	if err != nil {
		return false
	}
	return rule.Matches(path, false)
}

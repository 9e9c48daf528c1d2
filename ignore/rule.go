package ignore

import (
	"strings"

	"github.com/poiesic/codeindex/core"
)

// Kind classifies how a rule is matched.
type Kind int

const (
	// DirExact matches when any path segment equals the rule's name.
	DirExact Kind = iota + 1
	// GlobPath matches the whole relative path.
	GlobPath
	// GlobName matches the final path segment.
	GlobName
)

func (k Kind) String() string {
	switch k {
	case DirExact:
		return "dir-exact"
	case GlobPath:
		return "glob-path"
	case GlobName:
		return "glob-name"
	default:
		return "unknown"
	}
}

// Rule is one parsed ignore pattern.
type Rule struct {
	// Pattern is the text the rule was parsed from.
	Pattern string
	// Kind is derived from Pattern.
	Kind Kind

	name    string   // DirExact, GlobName
	segs    []string // GlobPath
	dirOnly bool     // DirExact written with a trailing "/" or "/**"
}

// key identifies rules that match exactly the same paths.
func (r Rule) key() string {
	switch r.Kind {
	case GlobPath:
		return "p:" + strings.Join(r.segs, "/")
	case GlobName:
		return "n:" + r.name
	default:
		if r.dirOnly {
			return "d:" + r.name + "/"
		}
		return "d:" + r.name
	}
}

// ParseRule parses a single pattern and derives its kind.
func ParseRule(pattern string) (Rule, error) {
	text := strings.TrimSpace(pattern)
	if text == "" {
		return Rule{}, &core.ConfigurationError{Field: "ignorePatterns", Reason: "empty pattern"}
	}
	if strings.HasPrefix(text, "!") {
		return Rule{}, &core.ConfigurationError{Field: "ignorePatterns", Reason: "negation is not supported: " + pattern}
	}
	if strings.ContainsAny(text, "[]") {
		return Rule{}, &core.ConfigurationError{Field: "ignorePatterns", Reason: "character classes are not supported: " + pattern}
	}

	text = strings.ReplaceAll(text, `\`, "/")
	trailingSlash := strings.HasSuffix(text, "/")
	segs := normalize(text)
	if len(segs) == 0 {
		return Rule{}, &core.ConfigurationError{Field: "ignorePatterns", Reason: "pattern has no segments: " + pattern}
	}

	rule := Rule{Pattern: pattern}
	switch {
	case len(segs) == 1 && segs[0] == "**":
		return Rule{}, &core.ConfigurationError{Field: "ignorePatterns", Reason: "pattern would ignore everything: " + pattern}
	case len(segs) == 1 && strings.Contains(segs[0], "*") && !trailingSlash:
		rule.Kind = GlobName
		rule.name = segs[0]
	case len(segs) == 1:
		rule.Kind = DirExact
		rule.name = segs[0]
		rule.dirOnly = trailingSlash
	case len(segs) == 2 && segs[1] == "**" && segs[0] != "**":
		// "node_modules/**" names a directory wherever it appears.
		rule.Kind = DirExact
		rule.name = segs[0]
		rule.dirOnly = true
	default:
		rule.Kind = GlobPath
		if trailingSlash {
			segs = append(segs, "**")
		}
		rule.segs = segs
	}
	return rule, nil
}

// KindOf returns the kind ParseRule would derive for pattern.
func KindOf(pattern string) (Kind, error) {
	r, err := ParseRule(pattern)
	if err != nil {
		return 0, err
	}
	return r.Kind, nil
}

// match reports whether the rule matches a normalized, non-empty path.
func (r Rule) match(segs []string, isDir bool) bool {
	switch r.Kind {
	case DirExact:
		last := len(segs) - 1
		for i, s := range segs {
			if i == last && r.dirOnly && !isDir {
				break
			}
			if matchSegment(s, r.name) {
				return true
			}
		}
		return false
	case GlobPath:
		return matchSegments(segs, r.segs)
	case GlobName:
		return matchSegment(segs[len(segs)-1], r.name)
	default:
		return false
	}
}

// Matches reports whether the rule alone matches path, without the hidden-segment rule.
func (r Rule) Matches(path string, isDir bool) bool {
	segs := normalize(path)
	if len(segs) == 0 {
		return false
	}
	return r.match(segs, isDir)
}

package authority

import (
	"fmt"
	"regexp"
	"strings"
)

// patternPrefix marks a config pattern as a regular expression.
const patternPrefix = "regex:"

// Matcher decides whether a route applies to an operation name. It is a
// tagged variant: exact string equality or a compiled regular
// expression. Exact routes never pay for the regex engine.
type Matcher struct {
	exact string
	re    *regexp.Regexp
}

// Exact returns a matcher requiring exact string equality.
func Exact(operation string) Matcher {
	return Matcher{exact: operation}
}

// Pattern compiles a regular-expression matcher. The expression is
// anchored so a pattern matches whole operation names only.
func Pattern(expr string) (Matcher, error) {
	if !strings.HasPrefix(expr, "^") {
		expr = "^" + expr
	}
	if !strings.HasSuffix(expr, "$") {
		expr = expr + "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("invalid route pattern %q: %w", expr, err)
	}
	return Matcher{re: re}, nil
}

// ParseMatcher builds a Matcher from config syntax: a "regex:" prefix
// selects a pattern matcher, anything else is exact.
func ParseMatcher(s string) (Matcher, error) {
	if rest, ok := strings.CutPrefix(s, patternPrefix); ok {
		return Pattern(rest)
	}
	return Exact(s), nil
}

// Matches reports whether the operation name matches.
func (m Matcher) Matches(operation string) bool {
	if m.re != nil {
		return m.re.MatchString(operation)
	}
	return m.exact == operation
}

// String returns the config representation of the matcher.
func (m Matcher) String() string {
	if m.re != nil {
		return patternPrefix + m.re.String()
	}
	return m.exact
}

package vocab

import (
	"fmt"
	"regexp"
	"strings"
)

var captureNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// compileExpression turns an Expression-flavor pattern (spec.md §4.4) into
// the body of a regex: literal text is escaped, `\`-escaped characters are
// taken literally, and `{name}`/`{name:pattern}` captures become named
// groups (`(?P<name>.*)` / `(?P<name>pattern)`). Grounded on
// zuke-macros/src/step_args.rs's state machine.
func compileExpression(pattern string) (string, error) {
	var b strings.Builder
	runes := []rune(pattern)
	i, n := 0, len(runes)

	for i < n {
		switch runes[i] {
		case '\\':
			if i+1 >= n {
				return "", fmt.Errorf("pattern %q: trailing backslash", pattern)
			}
			b.WriteString(regexp.QuoteMeta(string(runes[i+1])))
			i += 2
		case '{':
			end := strings.IndexRune(string(runes[i+1:]), '}')
			if end < 0 {
				return "", fmt.Errorf("pattern %q: unterminated capture starting at %d", pattern, i)
			}
			body := string(runes[i+1 : i+1+end])
			i += end + 2

			name, sub, hasSub := body, "", false
			if idx := strings.IndexByte(body, ':'); idx >= 0 {
				name, sub, hasSub = body[:idx], body[idx+1:], true
			}
			if name == "" {
				return "", fmt.Errorf("pattern %q: empty capture name", pattern)
			}
			if !captureNameRe.MatchString(name) {
				return "", fmt.Errorf("pattern %q: capture name %q must be alphanumeric/underscore", pattern, name)
			}
			if hasSub {
				if sub == "" {
					return "", fmt.Errorf("pattern %q: empty capture pattern for %q", pattern, name)
				}
				fmt.Fprintf(&b, "(?P<%s>%s)", name, sub)
			} else {
				fmt.Fprintf(&b, "(?P<%s>.*)", name)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
			i++
		}
	}

	return b.String(), nil
}

// stepPrefix selects the keyword prefix a pattern is normalized with, per
// spec.md §4.4's "Normalization".
func stepPrefix(t StepTypeFilter) string {
	switch t {
	case GivenOnly:
		return "Given "
	case WhenOnly:
		return "When "
	case ThenOnly:
		return "Then "
	default:
		return "(?:Given|When|Then) "
	}
}

// StepTypeFilter restricts a registered pattern to a single Gherkin step
// type, or leaves it open to all three.
type StepTypeFilter int

const (
	AnyStepType StepTypeFilter = iota
	GivenOnly
	WhenOnly
	ThenOnly
)

// compilePattern wraps body (already regex-ready, either produced by
// compileExpression or a user-supplied verbatim regex) into the full,
// anchored, case-insensitive form spec.md §4.4 mandates:
// `^(?i){prefix}{body}$`.
func compilePattern(body string, t StepTypeFilter) (*regexp.Regexp, error) {
	full := "^(?i)" + stepPrefix(t) + body + "$"
	return regexp.Compile(full)
}

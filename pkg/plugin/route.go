package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidPattern is returned when a <match> block carries a malformed tag pattern.
var ErrInvalidPattern = errors.New("invalid match pattern")

// Tag patterns are dot-separated. "*" matches one tag part, "**" matches
// zero or more parts and "{a,b}" matches either alternative. A block
// argument may hold several patterns separated by spaces.
func tagPatterns(arg string) []string {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return []string{"**"}
	}
	return fields
}

func tagPath(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}

func validatePattern(arg string) error {
	for _, p := range tagPatterns(arg) {
		if !doublestar.ValidatePattern(tagPath(p)) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	return nil
}

// MatchesTag reports whether an output component's pattern accepts tag.
// Inputs never match.
func (c *Component) MatchesTag(tag string) bool {
	if c.Kind != KindOutput {
		return false
	}
	name := tagPath(tag)
	for _, p := range tagPatterns(c.Pattern) {
		if ok, err := doublestar.Match(tagPath(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// Route returns the first output, in file order, whose pattern accepts tag.
func (p *Pipeline) Route(tag string) (*Component, bool) {
	for _, comp := range p.Outputs() {
		if comp.MatchesTag(tag) {
			return comp, true
		}
	}
	return nil, false
}

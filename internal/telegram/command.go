package telegram

import (
	"strings"
	"sync/atomic"
	"unicode"
)

type commandSet struct {
	name     string
	prefixes []string
}

// Matcher recognizes the trigger command. It can be reconfigured while the
// listener is running.
type Matcher struct {
	set atomic.Pointer[commandSet]
}

// NewMatcher creates a Matcher for name under any of prefixes.
func NewMatcher(name string, prefixes []string) *Matcher {
	m := &Matcher{}
	m.Update(name, prefixes)
	return m
}

// Update swaps the command name and prefixes.
func (m *Matcher) Update(name string, prefixes []string) {
	m.set.Store(&commandSet{name: name, prefixes: append([]string(nil), prefixes...)})
}

// Match reports whether text invokes the command. Trailing arguments are
// allowed and ignored; the command word itself must match exactly.
func (m *Matcher) Match(text string) bool {
	set := m.set.Load()
	if set == nil || set.name == "" {
		return false
	}
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	for _, prefix := range set.prefixes {
		if prefix == "" {
			continue
		}
		rest, ok := strings.CutPrefix(text, prefix+set.name)
		if !ok {
			continue
		}
		if rest == "" {
			return true
		}
		if r := []rune(rest)[0]; unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

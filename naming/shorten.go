package naming

import (
	"strings"
	"sync"

	"github.com/syssam/orma"
)

// Shorten deterministically reduces name to at most max characters. Names
// within the limit, and a non-positive max, leave name unchanged. The steps
// are applied until the name fits:
//
//  1. remove vowels, except the first character
//  2. drop every 4th character, except the first
//  3. truncate
func Shorten(name string, max int) string {
	r := []rune(name)
	if max <= 0 || len(r) <= max {
		return name
	}
	out := make([]rune, 0, len(r))
	out = append(out, r[0])
	for _, c := range r[1:] {
		if !strings.ContainsRune("aeiouAEIOU", c) {
			out = append(out, c)
		}
	}
	if len(out) <= max {
		return string(out)
	}
	r, out = out, out[:0:0]
	for i, c := range r {
		if i > 0 && (i+1)%4 == 0 {
			continue
		}
		out = append(out, c)
	}
	if len(out) <= max {
		return string(out)
	}
	return string(out[:max])
}

// Scope shortens identifiers that share a namespace, such as the columns of
// one table or the constraints of one schema, and reports collisions instead
// of returning them. It is safe for concurrent use.
type Scope struct {
	dialect string
	max     int
	mu      sync.Mutex
	seen    map[string]string // shortened -> original
}

// NewScope returns a scope for identifiers of at most max characters.
func NewScope(dialect string, max int) *Scope {
	return &Scope{dialect: dialect, max: max, seen: make(map[string]string)}
}

// Name returns the shortened form of name, or a NameTooLongError when a
// different name in the scope already shortened to the same identifier.
// Repeated calls with the same name return the same result.
func (s *Scope) Name(name string) (string, error) {
	short := Shorten(name, s.max)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.seen[short]; ok && prev != name {
		return "", &orma.NameTooLongError{
			Dialect:   s.dialect,
			Name:      name,
			Other:     prev,
			Shortened: short,
			Max:       s.max,
		}
	}
	s.seen[short] = name
	return short, nil
}

// ShortenAll shortens names as one scope. It fails on the first collision.
func ShortenAll(dialect string, max int, names ...string) ([]string, error) {
	s := NewScope(dialect, max)
	out := make([]string, len(names))
	for i, n := range names {
		short, err := s.Name(n)
		if err != nil {
			return nil, err
		}
		out[i] = short
	}
	return out, nil
}

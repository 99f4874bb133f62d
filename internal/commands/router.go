package commands

import (
	"sort"
	"strings"
	"unicode"
)

var DefaultPrefixes = []string{"++", "$", ">"}

// Invocation is a recognized command within a message.
type Invocation struct {
	Command string
	// Name is the word the user typed, before alias resolution.
	Name string
	Args string
}

type Router struct {
	prefixes []string
	mention  bool
}

// NewRouter builds a router for the given prefixes. Longer prefixes are tried
// first so "++" wins over a configured "+".
func NewRouter(prefixes []string, mention bool) *Router {
	cleaned := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			cleaned = append(cleaned, prefix)
		}
	}
	if len(cleaned) == 0 && !mention {
		cleaned = append(cleaned, DefaultPrefixes...)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) > len(cleaned[j])
	})
	return &Router{prefixes: cleaned, mention: mention}
}

func (r *Router) Prefixes() []string {
	return append([]string(nil), r.prefixes...)
}

// Parse recognizes a prefixed or mention-addressed command. Whitespace may
// separate the prefix from the command name, which is matched
// case-insensitively. botUserID enables the mention form once known.
func (r *Router) Parse(text, botUserID string) (Invocation, bool) {
	rest, ok := r.stripPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), botUserID)
	if !ok {
		return Invocation{}, false
	}
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	end := strings.IndexFunc(rest, unicode.IsSpace)
	name, args := rest, ""
	if end >= 0 {
		name, args = rest[:end], strings.TrimSpace(rest[end:])
	}
	command, ok := Canonical(name)
	if !ok {
		return Invocation{}, false
	}
	return Invocation{Command: command, Name: strings.ToLower(name), Args: args}, true
}

func (r *Router) stripPrefix(text, botUserID string) (string, bool) {
	if r.mention && strings.TrimSpace(botUserID) != "" {
		for _, mention := range []string{"<@" + botUserID + ">", "<@!" + botUserID + ">"} {
			if strings.HasPrefix(text, mention) {
				return text[len(mention):], true
			}
		}
	}
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(text, prefix) {
			return text[len(prefix):], true
		}
	}
	return "", false
}

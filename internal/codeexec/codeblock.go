package codeexec

import (
	"regexp"
	"strings"
)

// CodeBlock is a fenced block lifted out of a chat message.
type CodeBlock struct {
	Language string
	Body     string
}

// The body group is greedy: with several fenced blocks in one message the body
// runs to the last closing fence.
var codeBlockPattern = regexp.MustCompile("(?s)^.*exec.*```([a-zA-Z0-9_\\-+]+)\n(.+)```")

// ExtractCodeBlock finds the language-tagged fenced block following the exec
// trigger. The language is returned lower-cased.
func ExtractCodeBlock(text string) (CodeBlock, bool) {
	match := codeBlockPattern.FindStringSubmatch(text)
	if match == nil {
		return CodeBlock{}, false
	}
	return CodeBlock{
		Language: strings.ToLower(match[1]),
		Body:     match[2],
	}, true
}

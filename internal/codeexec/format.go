package codeexec

// MaxOutputRunes keeps a fenced reply under Discord's 2000 code point limit.
const MaxOutputRunes = 1990

const fence = "```"

// Truncate cuts text to at most maxRunes code points without splitting one.
func Truncate(text string, maxRunes int) string {
	if maxRunes < 0 {
		maxRunes = 0
	}
	count := 0
	for index := range text {
		if count == maxRunes {
			return text[:index]
		}
		count++
	}
	return text
}

// FormatOutput renders execution output as a monospace block. Long output is
// cut silently.
func FormatOutput(output string) string {
	return fence + "\n" + Truncate(output, MaxOutputRunes) + "\n" + fence
}

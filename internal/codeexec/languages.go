package codeexec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dwizi/autobot/internal/boterr"
)

// Toolchain is the shell invocation run by the execution service. The service
// stages submitted source as main.cpp, so every interpreter command renames it
// first.
type Toolchain struct {
	Command string
	// SendSource is false for diagnostics that ignore the submitted code.
	SendSource bool
}

var toolchains = func() map[string]Toolchain {
	staged := func(extension, interpreter string) Toolchain {
		return Toolchain{
			Command:    fmt.Sprintf("mv main.cpp main.%s && %s main.%s", extension, interpreter, extension),
			SendSource: true,
		}
	}
	python := staged("py", "python")
	shell := staged("sh", "sh")
	haskell := staged("hs", "runhaskell")
	return map[string]Toolchain{
		"test":    {Command: "echo Hello, World!"},
		"py":      python,
		"python":  python,
		"sh":      shell,
		"shell":   shell,
		"lua":     staged("lua", "lua"),
		"hs":      haskell,
		"haskell": haskell,
	}
}()

// Resolve maps a code block language tag to its toolchain.
func Resolve(language string) (Toolchain, error) {
	toolchain, ok := toolchains[strings.ToLower(language)]
	if !ok {
		return Toolchain{}, fmt.Errorf("%w: %s", boterr.ErrUnknownLanguage, language)
	}
	return toolchain, nil
}

// Aliases lists every recognized language tag in sorted order.
func Aliases() []string {
	aliases := make([]string, 0, len(toolchains))
	for alias := range toolchains {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// UnknownLanguageMessage is the user-facing text for an unrecognized tag.
func UnknownLanguageMessage(language string) string {
	return fmt.Sprintf("Unknown language `%s`.", language)
}

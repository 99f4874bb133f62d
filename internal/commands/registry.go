package commands

import "strings"

const (
	CommandPing   = "ping"
	CommandSearch = "search"
	CommandEval   = "eval"
	CommandExec   = "exec"
	CommandHelp   = "help"
	CommandLink   = "link"
	CommandStats  = "stats"
)

type Definition struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

func Definitions() []Definition {
	return []Definition{
		{
			Name:        CommandPing,
			Aliases:     []string{"test"},
			Description: "Says Pong.",
		},
		{
			Name:        CommandSearch,
			Aliases:     []string{"ddg"},
			Usage:       "<query>",
			Description: "Executes a search using DuckDuckGo.",
		},
		{
			Name:        CommandEval,
			Aliases:     []string{"calc"},
			Usage:       "<expression>",
			Description: "Evaluates an arithmetic expression.",
		},
		{
			Name:        CommandExec,
			Usage:       "```<language>\\n<code>```",
			Description: "Executes code passed in codeblock with language set via Coliru. Supported languages: python, shell, lua, haskell.",
		},
		{
			Name:        CommandLink,
			Aliases:     []string{"web"},
			Usage:       "<query>",
			Description: "Searches DuckDuckGo and returns the first result as a link.",
		},
		{
			Name:        CommandStats,
			Description: "Shows how often each command has been used.",
		},
		{
			Name:        CommandHelp,
			Description: "Lists the available commands.",
		},
	}
}

var commandIndex = func() map[string]string {
	index := map[string]string{}
	for _, definition := range Definitions() {
		index[definition.Name] = definition.Name
		for _, alias := range definition.Aliases {
			index[alias] = definition.Name
		}
	}
	return index
}()

// Canonical maps a command name or alias to its canonical name.
func Canonical(name string) (string, bool) {
	canonical, ok := commandIndex[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

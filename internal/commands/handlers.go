package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwizi/autobot/internal/boterr"
	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/ddg"
)

// Execute resolves language, runs source remotely and returns the output as a
// fenced block ready to post.
func (s *Service) Execute(ctx context.Context, language, source string) (string, error) {
	toolchain, err := codeexec.Resolve(language)
	if err != nil {
		return "", err
	}
	if s.executor == nil {
		return "", fmt.Errorf("%w: code execution is not configured", boterr.ErrTransport)
	}
	if !toolchain.SendSource {
		source = ""
	}
	started := time.Now()
	output, err := s.executor.Execute(ctx, codeexec.Request{Command: toolchain.Command, Source: source})
	s.metrics.ObserveUpstream("execution", started)
	if err != nil {
		return "", err
	}
	return codeexec.FormatOutput(output), nil
}

func (s *Service) handleExec(ctx context.Context, text string, reply *replier) string {
	block, ok := codeexec.ExtractCodeBlock(text)
	if !ok {
		return reply.fail(boterr.ErrInvalidFormat, invalidFormatMessage)
	}
	output, err := s.Execute(ctx, block.Language, block.Body)
	switch {
	case errors.Is(err, boterr.ErrUnknownLanguage):
		return reply.fail(err, codeexec.UnknownLanguageMessage(block.Language))
	case err != nil:
		return reply.fail(err, userMessage(err, boterr.ErrTransport))
	}
	reply.send(textPost(output))
	return outcomeOK
}

// Search queries the search service and routes the reply into postable
// results.
func (s *Service) Search(ctx context.Context, query string) (ddg.Outcome, error) {
	if s.searcher == nil {
		return ddg.Outcome{}, fmt.Errorf("%w: search is not configured", boterr.ErrTransport)
	}
	started := time.Now()
	response, err := s.searcher.Search(ctx, query)
	s.metrics.ObserveUpstream("search", started)
	if err != nil {
		return ddg.Outcome{}, err
	}
	return ddg.Route(query, response), nil
}

func (s *Service) handleSearch(ctx context.Context, query string, reply *replier) string {
	outcome, err := s.Search(ctx, query)
	if err != nil {
		return reply.fail(err, userMessage(err, boterr.ErrTransport))
	}
	switch {
	case outcome.Err != nil:
		return reply.fail(outcome.Err, outcome.Err.Error())
	case outcome.Notice != "":
		reply.send(textPost(outcome.Notice))
		return outcomeNoResults
	}
	for _, result := range outcome.Results {
		if !reply.send(searchPost(result)) {
			break
		}
	}
	return outcomeOK
}

func searchPost(result ddg.Result) Post {
	return Post{Embed: &Embed{
		Title:       result.Title,
		Description: result.Text,
		Color:       ColorSearch,
		URL:         result.URL,
		Image:       result.Image,
	}}
}

func (s *Service) handleEval(ctx context.Context, expression string, reply *replier) string {
	if s.evaluator == nil {
		return reply.fail(errors.New("evaluation is not configured"), "Evaluation is not available.")
	}
	value, err := s.evaluator.Eval(ctx, expression)
	if err != nil {
		return reply.fail(err, userMessage(err, boterr.ErrInvalidExpression))
	}
	reply.send(resultPost(value))
	return outcomeOK
}

func (s *Service) handleLink(ctx context.Context, query string, reply *replier) string {
	if s.searcher == nil {
		return reply.fail(fmt.Errorf("%w: search is not configured", boterr.ErrTransport), "Search is not available.")
	}
	started := time.Now()
	link, err := s.searcher.FirstLink(ctx, query)
	s.metrics.ObserveUpstream("search_html", started)
	if err != nil {
		return reply.fail(err, userMessage(err, boterr.ErrTransport))
	}
	if link == "" {
		reply.send(textPost(ddg.NoResultsNotice))
		return outcomeNoResults
	}
	reply.send(textPost(link))
	return outcomeOK
}

func (s *Service) handleStats(ctx context.Context, reply *replier) string {
	if s.ledger == nil {
		return reply.fail(errors.New("ledger disabled"), "Command statistics are disabled.")
	}
	counts, err := s.ledger.CountByCommand(ctx)
	if err != nil {
		s.logger.Error("count invocations failed", "error", err)
		return reply.fail(err, "Could not load command statistics.")
	}
	if len(counts) == 0 {
		reply.send(resultPost("No commands recorded yet."))
		return outcomeOK
	}
	lines := make([]string, 0, len(counts))
	for _, count := range counts {
		line := fmt.Sprintf("`%s` %d", count.Command, count.Total)
		if count.Failures > 0 {
			line += fmt.Sprintf(" (%d failed)", count.Failures)
		}
		lines = append(lines, line)
	}
	reply.send(Post{Embed: &Embed{Title: "Stats", Description: strings.Join(lines, "\n"), Color: ColorResult}})
	return outcomeOK
}

func helpPost(prefixes []string) Post {
	prefix := ""
	if len(prefixes) > 0 {
		prefix = prefixes[0]
	}
	lines := make([]string, 0, len(Definitions())+1)
	for _, definition := range Definitions() {
		line := "`" + prefix + definition.Name
		if definition.Usage != "" {
			line += " " + definition.Usage
		}
		line += "` " + definition.Description
		if len(definition.Aliases) > 0 {
			line += " Also: " + strings.Join(definition.Aliases, ", ") + "."
		}
		lines = append(lines, line)
	}
	if len(prefixes) > 1 {
		lines = append(lines, "Prefixes: "+strings.Join(prefixes, " "))
	}
	return Post{Embed: &Embed{Title: "Help", Description: strings.Join(lines, "\n"), Color: ColorResult}}
}

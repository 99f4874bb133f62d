package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dwizi/autobot/internal/boterr"
	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/ddg"
	"github.com/dwizi/autobot/internal/metrics"
	"github.com/dwizi/autobot/internal/store"
)

const invalidFormatMessage = "Invalid format; expected a codeblock with a language set."

type Executor interface {
	Execute(ctx context.Context, request codeexec.Request) (string, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) (ddg.Response, error)
	FirstLink(ctx context.Context, query string) (string, error)
}

type Evaluator interface {
	Eval(ctx context.Context, expression string) (string, error)
}

type Ledger interface {
	RecordInvocation(ctx context.Context, input store.RecordInvocationInput) (store.Invocation, error)
	CountByCommand(ctx context.Context) ([]store.CommandCount, error)
}

type Service struct {
	router    *Router
	executor  Executor
	searcher  Searcher
	evaluator Evaluator
	ledger    Ledger
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

// WithLedger records every dispatched command. Without it stats is disabled.
func WithLedger(ledger Ledger) Option {
	return func(s *Service) {
		s.ledger = ledger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(router *Router, executor Executor, searcher Searcher, evaluator Evaluator, opts ...Option) *Service {
	if router == nil {
		router = NewRouter(DefaultPrefixes, true)
	}
	service := &Service{
		router:    router,
		executor:  executor,
		searcher:  searcher,
		evaluator: evaluator,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service
}

type MessageInput struct {
	Connector string
	ChannelID string
	UserID    string
	BotUserID string
	FromBot   bool
	Text      string
}

type MessageOutput struct {
	Handled bool
	Command string
	Outcome string
}

// HandleMessage routes one inbound message and posts every reply in order.
// The returned error is a post failure; user-facing problems are posted and
// reported through Outcome.
func (s *Service) HandleMessage(ctx context.Context, input MessageInput, poster Poster) (MessageOutput, error) {
	s.metrics.MessageSeen()
	if input.FromBot {
		return MessageOutput{}, nil
	}
	invocation, ok := s.router.Parse(input.Text, input.BotUserID)
	if !ok {
		return MessageOutput{}, nil
	}

	s.logger.Info("command received",
		"connector", input.Connector,
		"channel_id", input.ChannelID,
		"user_id", input.UserID,
		"command", invocation.Command,
		"content", input.Text,
	)
	s.metrics.CommandInvoked(invocation.Command)

	started := time.Now()
	reply := &replier{ctx: ctx, poster: poster, channelID: input.ChannelID}
	outcome := s.dispatch(ctx, invocation, input, reply)
	if reply.err != nil {
		outcome = outcomePostFailed
	}
	if outcome != outcomeOK && outcome != outcomeNoResults {
		s.metrics.CommandFailed(invocation.Command, outcome)
	}
	s.record(ctx, input, invocation.Command, outcome, reply, time.Since(started))

	output := MessageOutput{Handled: true, Command: invocation.Command, Outcome: outcome}
	if reply.err != nil {
		return output, fmt.Errorf("post %s reply: %w", invocation.Command, reply.err)
	}
	return output, nil
}

func (s *Service) dispatch(ctx context.Context, invocation Invocation, input MessageInput, reply *replier) string {
	switch invocation.Command {
	case CommandPing:
		reply.send(textPost("Pong!"))
		return outcomeOK
	case CommandExec:
		return s.handleExec(ctx, input.Text, reply)
	case CommandSearch:
		return s.handleSearch(ctx, invocation.Args, reply)
	case CommandEval:
		return s.handleEval(ctx, invocation.Args, reply)
	case CommandLink:
		return s.handleLink(ctx, invocation.Args, reply)
	case CommandStats:
		return s.handleStats(ctx, reply)
	case CommandHelp:
		reply.send(helpPost(s.router.Prefixes()))
		return outcomeOK
	default:
		return outcomeOK
	}
}

func (s *Service) record(ctx context.Context, input MessageInput, command, outcome string, reply *replier, duration time.Duration) {
	if s.ledger == nil {
		return
	}
	_, err := s.ledger.RecordInvocation(ctx, store.RecordInvocationInput{
		Connector: input.Connector,
		ChannelID: input.ChannelID,
		UserID:    input.UserID,
		Command:   command,
		Outcome:   outcome,
		Detail:    reply.detail,
		Duration:  duration,
	})
	if err != nil {
		s.logger.Warn("record invocation failed", "command", command, "error", err)
	}
}

// replier posts sequentially and stops at the first failure.
type replier struct {
	ctx       context.Context
	poster    Poster
	channelID string
	err       error
	detail    string
}

func (r *replier) send(post Post) bool {
	if r.err != nil {
		return false
	}
	if err := r.poster.Post(r.ctx, r.channelID, post); err != nil {
		r.err = err
		return false
	}
	return true
}

// fail posts an error embed and returns the outcome for err.
func (r *replier) fail(err error, message string) string {
	r.detail = err.Error()
	r.send(errorPost(message))
	return outcomeFor(err)
}

const (
	outcomeOK         = "ok"
	outcomeNoResults  = "no_results"
	outcomePostFailed = "post_failed"
	outcomeInternal   = "internal"
)

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, boterr.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, boterr.ErrUnknownLanguage):
		return "unknown_language"
	case errors.Is(err, boterr.ErrTransport):
		return "transport"
	case errors.Is(err, boterr.ErrUnknownResponseType):
		return "unknown_response_type"
	case errors.Is(err, boterr.ErrInvalidExpression):
		return "invalid_expression"
	default:
		return outcomeInternal
	}
}

// userMessage strips the sentinel prefix so the user sees only the cause.
func userMessage(err error, sentinel error) string {
	message := err.Error()
	if trimmed, ok := strings.CutPrefix(message, sentinel.Error()+": "); ok && trimmed != "" {
		return trimmed
	}
	return message
}

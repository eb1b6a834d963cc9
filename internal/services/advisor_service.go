package services

import (
	"context"
	"strings"
	"time"

	"bpih-platform/internal/advisor"
	"bpih-platform/internal/models"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

// Answer formats
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ContextSource assembles the context block for a question
type ContextSource interface {
	Context(query string) string
	MatchedRules(query string) []string
}

// Answer is one advisor reply
type Answer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Format   string   `json:"format"`
	Provider string   `json:"provider"`
	Fallback bool     `json:"fallback"`
	Sections []string `json:"context_sections"`
}

// AdvisorService answers questions one at a time; it keeps no conversation state
type AdvisorService struct {
	contexts ContextSource
	primary  advisor.Advisor
	fallback advisor.Advisor
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewAdvisorService wires a primary advisor with the one used when it fails.
// primary may be nil, in which case every question goes to the fallback.
func NewAdvisorService(contexts ContextSource, primary, fallback advisor.Advisor, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AdvisorService {
	if primary == nil {
		primary = fallback
	}
	return &AdvisorService{
		contexts: contexts,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Provider names the primary advisor
func (s *AdvisorService) Provider() string {
	return s.primary.Name()
}

// Ask answers a question in the requested format
func (s *AdvisorService) Ask(ctx context.Context, question, format string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &models.InvalidInputError{Field: "question", Message: "must not be empty"}
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatMarkdown
	}
	if format != FormatMarkdown && format != FormatHTML {
		return nil, &models.InvalidInputError{Field: "format", Message: "must be markdown or html"}
	}

	contextBlock := s.contexts.Context(question)
	sections := s.contexts.MatchedRules(question)

	s.logger.Info(ctx, "[ADVISOR_ASK] Question received", logging.Fields{
		"provider":      s.primary.Name(),
		"sections":      sections,
		"context_bytes": len(contextBlock),
	})

	provider := s.primary.Name()
	text, err := s.respond(ctx, s.primary, question, contextBlock)
	usedFallback := false
	if err != nil {
		if s.fallback == nil || s.fallback == s.primary {
			return nil, err
		}

		s.logger.Warn(ctx, "[ADVISOR_FALLBACK] Primary advisor failed, using fallback", logging.Fields{
			"provider": provider,
			"fallback": s.fallback.Name(),
			"error":    err.Error(),
		})

		text, err = s.respond(ctx, s.fallback, question, contextBlock)
		if err != nil {
			return nil, err
		}
		provider = s.fallback.Name()
		usedFallback = true
	}

	answer := advisor.CleanMarkdown(text)
	if format == FormatHTML {
		answer, err = advisor.RenderHTML(answer)
		if err != nil {
			return nil, err
		}
	}

	return &Answer{
		Question: question,
		Answer:   answer,
		Format:   format,
		Provider: provider,
		Fallback: usedFallback,
		Sections: sections,
	}, nil
}

func (s *AdvisorService) respond(ctx context.Context, a advisor.Advisor, question, contextBlock string) (string, error) {
	startTime := time.Now()
	text, err := a.Respond(ctx, question, contextBlock)
	duration := time.Since(startTime)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordAdvisorCall(a.Name(), outcome, duration)

	if err != nil {
		s.logger.Error(ctx, "[ADVISOR_ERROR] Advisor call failed", logging.Fields{
			"provider":         a.Name(),
			"duration_seconds": duration.Seconds(),
		}, err)
		return "", err
	}

	s.logger.Debug(ctx, "[ADVISOR_RESPONSE] Advisor answered", logging.Fields{
		"provider":         a.Name(),
		"duration_seconds": duration.Seconds(),
		"answer_bytes":     len(text),
	})
	return text, nil
}

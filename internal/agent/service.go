// Package agent routes a question to the knowledge source most likely to
// answer it. The model picks tools backed by the website and CV chat
// services and the loop runs until the model answers in plain text or the
// iteration cap is hit.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/domain"
	"github.com/kailas-cloud/knowme/internal/metrics"
)

const (
	// ToolSite answers from the person's website export.
	ToolSite = "site-answer-tool"
	// ToolCV answers from the person's CV.
	ToolCV = "cv-answer-tool"

	defaultMaxIterations = 4
)

const systemPrompt = "You will answer questions from the user about a candidate. " +
	"The answer might be present in their website or it might be present in their CV. " +
	"Your job is to choose either the site-answer-tool or cv-answer-tool to answer " +
	"the question from. If the answer is not available in the site-answer-tool " +
	"use the cv-answer-tool."

// toolParameters is the argument schema shared by both tools.
var toolParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The question to answer from this knowledge source"
		},
		"session_id": {
			"type": "string",
			"description": "The conversation session the question belongs to"
		}
	},
	"required": ["query"]
}`)

// toolArgs is the decoded form of a tool call's arguments.
type toolArgs struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// Service is the router agent over the two knowledge sources.
type Service struct {
	model         ToolModel
	site          Answerer
	cv            Answerer
	sessions      Sessions
	maxIterations int
	logger        *zap.Logger
}

// NewService creates the router agent. Both backends are injected, so
// tests can route to fakes.
func NewService(model ToolModel, site, cv Answerer, sessions Sessions, logger *zap.Logger) *Service {
	return &Service{
		model:         model,
		site:          site,
		cv:            cv,
		sessions:      sessions,
		maxIterations: defaultMaxIterations,
		logger:        logger,
	}
}

// WithMaxIterations caps the number of model rounds per question.
// Non-positive values keep the default.
func (s *Service) WithMaxIterations(n int) *Service {
	if n > 0 {
		s.maxIterations = n
	}
	return s
}

// Answer routes query to the best knowledge source and returns the answer.
//
// Each loop round offers both tools to the model. Tool failures are fed
// back as observations rather than aborting, so the model can retry with
// the other source. A round without tool calls ends the loop with the
// model's text as the final answer. When maxIterations rounds pass without
// a final answer the call fails with ErrAgentLoopExceeded.
func (s *Service) Answer(ctx context.Context, sessionID, query string) (string, error) {
	history, err := s.sessions.Turns(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Text: systemPrompt})
	for _, turn := range history {
		messages = append(messages, domain.Message{Role: turn.Role, Text: turn.Text})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Text: query})

	tools := []domain.ToolSpec{
		{
			Name:        ToolSite,
			Description: "Answers questions from the content of the candidate's website.",
			Parameters:  toolParameters,
		},
		{
			Name:        ToolCV,
			Description: "Answers questions from the candidate's CV.",
			Parameters:  toolParameters,
		},
	}

	for i := 0; i < s.maxIterations; i++ {
		completion, err := s.model.CompleteWithTools(ctx, messages, tools)
		if err != nil {
			return "", err
		}

		if len(completion.ToolCalls) == 0 {
			answer := completion.Text
			err = s.sessions.Append(ctx, sessionID,
				domain.Turn{Role: domain.RoleUser, Text: query},
				domain.Turn{Role: domain.RoleAssistant, Text: answer},
			)
			if err != nil {
				return "", fmt.Errorf("record exchange: %w", err)
			}
			s.logger.Info("agent answered",
				zap.String("session_id", sessionID),
				zap.Int("rounds", i+1),
			)
			return answer, nil
		}

		messages = append(messages, domain.Message{
			Role:      domain.RoleAssistant,
			Text:      completion.Text,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			messages = append(messages, domain.Message{
				Role:       domain.RoleTool,
				Text:       s.runTool(ctx, sessionID, call),
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("no final answer after %d rounds: %w", s.maxIterations, domain.ErrAgentLoopExceeded)
}

// runTool executes one tool call. Failures become observations for the
// model instead of errors for the caller.
func (s *Service) runTool(ctx context.Context, sessionID string, call domain.ToolCall) string {
	var args toolArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		metrics.AgentToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
		return fmt.Sprintf("tool error: invalid arguments: %v", err)
	}
	if args.SessionID == "" {
		args.SessionID = sessionID
	}

	var backend Answerer
	switch call.Name {
	case ToolSite:
		backend = s.site
	case ToolCV:
		backend = s.cv
	default:
		metrics.AgentToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
		return fmt.Sprintf("tool error: unknown tool %q", call.Name)
	}

	answer, err := backend.Answer(ctx, args.SessionID, args.Query)
	if err != nil {
		metrics.AgentToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
		s.logger.Warn("tool call failed",
			zap.String("tool", call.Name),
			zap.String("session_id", args.SessionID),
			zap.Error(err),
		)
		return fmt.Sprintf("tool error: %v", err)
	}

	metrics.AgentToolCallsTotal.WithLabelValues(call.Name, "success").Inc()
	return answer
}

// Package chat answers questions over one knowledge source with
// retrieval-augmented generation and session-scoped history.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/domain"
)

// Service answers questions over a single knowledge source.
//
// Each call retrieves the most relevant chunks for the question, asks the
// model to synthesize an answer from them, and records the exchange in the
// session's history. Follow-up questions are first rewritten into
// standalone ones so retrieval does not depend on the conversation.
type Service struct {
	source    string
	retriever Retriever
	model     ChatModel
	sessions  Sessions
	topK      int
	logger    *zap.Logger
}

// NewService creates a chat service over one knowledge source. The source
// name only appears in logs.
func NewService(source string, retriever Retriever, model ChatModel, sessions Sessions, topK int, logger *zap.Logger) *Service {
	return &Service{
		source:    source,
		retriever: retriever,
		model:     model,
		sessions:  sessions,
		topK:      topK,
		logger:    logger,
	}
}

// Answer responds to query within the given session.
//
// The exchange is appended to the session only after the answer is fully
// produced, and as a single two-turn append. A failed call leaves the
// history exactly as it was.
func (s *Service) Answer(ctx context.Context, sessionID, query string) (string, error) {
	history, err := s.sessions.Turns(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	question := query
	if len(history) > 0 {
		question, err = s.rewrite(ctx, history, query)
		if err != nil {
			return "", err
		}
	}

	chunks, err := s.retriever.Search(ctx, question, s.topK)
	if err != nil {
		return "", err
	}

	answer, err := s.synthesize(ctx, history, query, chunks)
	if err != nil {
		return "", err
	}

	err = s.sessions.Append(ctx, sessionID,
		domain.Turn{Role: domain.RoleUser, Text: query},
		domain.Turn{Role: domain.RoleAssistant, Text: answer},
	)
	if err != nil {
		return "", fmt.Errorf("record exchange: %w", err)
	}

	s.logger.Info("question answered",
		zap.String("source", s.source),
		zap.String("session_id", sessionID),
		zap.Int("chunks", len(chunks)),
		zap.Bool("rewritten", question != query),
	)
	return answer, nil
}

// rewrite turns a follow-up question into a standalone one.
func (s *Service) rewrite(ctx context.Context, history []domain.Turn, query string) (string, error) {
	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Text: rewritePrompt})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Text: query})

	standalone, err := s.model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("rewrite question: %w", err)
	}
	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return query, nil
	}
	return standalone, nil
}

// synthesize asks the model to answer from the retrieved chunks. The
// original query is used here, not the standalone rewrite: the model sees
// the full history, so the question keeps its conversational form.
func (s *Service) synthesize(ctx context.Context, history []domain.Turn, query string, chunks []domain.ScoredChunk) (string, error) {
	texts := make([]string, len(chunks))
	for i, sc := range chunks {
		texts[i] = sc.Chunk.Text
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{
		Role: domain.RoleSystem,
		Text: fmt.Sprintf(synthesisPrompt, strings.Join(texts, "\n\n")),
	})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Text: query})

	answer, err := s.model.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return answer, nil
}

func historyMessages(history []domain.Turn) []domain.Message {
	messages := make([]domain.Message, len(history))
	for i, turn := range history {
		messages[i] = domain.Message{Role: turn.Role, Text: turn.Text}
	}
	return messages
}

package chat

import (
	"context"
	"unicode"
)

// Answerer produces a full answer for a session-scoped query. Both the
// chat service and the router agent satisfy it.
type Answerer interface {
	Answer(ctx context.Context, sessionID, query string) (string, error)
}

// AnswerStream computes the full answer and then emits it as word
// increments. Each increment is one word with its trailing whitespace, so
// concatenating everything received reproduces the answer exactly. The
// channel is closed after the last increment or when ctx is cancelled.
func AnswerStream(ctx context.Context, a Answerer, sessionID, query string) (<-chan string, error) {
	answer, err := a.Answer(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, inc := range wordIncrements(answer) {
			select {
			case ch <- inc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// wordIncrements splits text into word-plus-trailing-whitespace pieces.
// A leading whitespace run forms its own first piece.
func wordIncrements(text string) []string {
	runes := []rune(text)
	var (
		pieces []string
		start  int
		i      int
	)
	for i < len(runes) {
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			i++
		}
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		pieces = append(pieces, string(runes[start:i]))
		start = i
	}
	return pieces
}

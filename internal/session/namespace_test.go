package session

import (
	"context"
	"testing"
)

func TestNamespace_IsolatesScopes(t *testing.T) {
	backing := NewMemory(10)
	site := WithNamespace("site", backing)
	cv := WithNamespace("cv", backing)
	ctx := context.Background()

	if err := site.Append(ctx, "s1", userTurn("about the site")); err != nil {
		t.Fatalf("append site: %v", err)
	}
	if err := cv.Append(ctx, "s1", userTurn("about the cv")); err != nil {
		t.Fatalf("append cv: %v", err)
	}

	siteTurns, err := site.Turns(ctx, "s1")
	if err != nil {
		t.Fatalf("turns site: %v", err)
	}
	if len(siteTurns) != 1 || siteTurns[0].Text != "about the site" {
		t.Errorf("site scope leaked: %+v", siteTurns)
	}

	n, _ := cv.Len(ctx, "s1")
	if n != 1 {
		t.Errorf("expected 1 cv turn, got %d", n)
	}
}

func TestNamespace_ResetOnlyTouchesOwnScope(t *testing.T) {
	backing := NewMemory(10)
	site := WithNamespace("site", backing)
	cv := WithNamespace("cv", backing)
	ctx := context.Background()

	_ = site.Append(ctx, "s1", userTurn("a"))
	_ = cv.Append(ctx, "s1", userTurn("b"))

	if err := site.Reset(ctx, "s1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := site.Len(ctx, "s1"); n != 0 {
		t.Error("site scope should be empty after reset")
	}
	if n, _ := cv.Len(ctx, "s1"); n != 1 {
		t.Error("cv scope must survive a site reset")
	}
}

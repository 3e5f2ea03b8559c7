package runctx

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on empty context")
	}
	if _, ok := WorkerIDFromContext(ctx); ok {
		t.Fatal("expected no worker id on empty context")
	}

	ctx = WithRunID(ctx, "run-1")
	ctx = WithWorkerID(ctx, 0)
	ctx = WithGroup(ctx, "shotA")

	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("run id = %q/%v", id, ok)
	}
	if id, ok := WorkerIDFromContext(ctx); !ok || id != 0 {
		t.Fatalf("worker id = %d/%v", id, ok)
	}
	if g, ok := GroupFromContext(ctx); !ok || g != "shotA" {
		t.Fatalf("group = %q/%v", g, ok)
	}
}

func TestEmptyValuesLeaveContextUntouched(t *testing.T) {
	base := context.Background()
	if WithRunID(base, "") != base {
		t.Fatal("empty run id should return the same context")
	}
	if WithGroup(base, "") != base {
		t.Fatal("empty group should return the same context")
	}
}

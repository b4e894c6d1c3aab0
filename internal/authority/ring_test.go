package authority

import (
	"fmt"
	"testing"
)

func TestRingOverflowKeepsRecent(t *testing.T) {
	r := newRing()

	total := ringCap + 1
	for i := 0; i < total; i++ {
		r.append(AuditRecord{Operation: fmt.Sprintf("op-%d", i)})
	}

	snap := r.snapshot()
	if len(snap) != ringKeep {
		t.Fatalf("expected %d records after overflow, got %d", ringKeep, len(snap))
	}

	// The newest record survives; the oldest kept is total-ringKeep.
	if got := snap[len(snap)-1].Operation; got != fmt.Sprintf("op-%d", total-1) {
		t.Errorf("newest record lost: %s", got)
	}
	if got := snap[0].Operation; got != fmt.Sprintf("op-%d", total-ringKeep) {
		t.Errorf("unexpected oldest record: %s", got)
	}
}

func TestRingQueryNewestFirst(t *testing.T) {
	r := newRing()
	for i := 0; i < 5; i++ {
		r.append(AuditRecord{Operation: fmt.Sprintf("op-%d", i), Domain: "bootforge"})
	}

	out := r.query(AuditFilter{Domain: "bootforge", Limit: 2})
	if len(out) != 2 {
		t.Fatalf("expected 2, got %d", len(out))
	}
	if out[0].Operation != "op-4" || out[1].Operation != "op-3" {
		t.Errorf("expected newest first, got %s, %s", out[0].Operation, out[1].Operation)
	}
}

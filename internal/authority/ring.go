package authority

import (
	"time"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// Ring capacity: the ring holds at most ringCap decisions; hitting the
// cap evicts down to the most recent ringKeep in one step so steady
// overflow does not evict on every append.
const (
	ringCap  = 10000
	ringKeep = 5000
)

// AuditRecord is one routing decision kept in the in-memory ring. The
// durable record is the shadow log; this ring exists for cheap recent
// queries.
type AuditRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation string          `json:"operation"`
	Role      model.Role      `json:"role"`
	DeviceID  string          `json:"device_id,omitempty"`
	Domain    string          `json:"domain,omitempty"`
	Success   bool            `json:"success"`
	Error     model.ErrorCode `json:"error,omitempty"`
}

// AuditFilter selects records from the ring. Zero values match all.
type AuditFilter struct {
	Operation string
	Domain    string
	Success   *bool
	Limit     int
}

// ring is a fixed-capacity circular buffer of audit records. Not
// goroutine-safe; the Router serializes access.
type ring struct {
	buf   []AuditRecord
	start int
	count int
}

func newRing() *ring {
	return &ring{buf: make([]AuditRecord, ringCap)}
}

func (r *ring) append(rec AuditRecord) {
	if r.count == len(r.buf) {
		// Evict the oldest entries in one step, keeping the most recent
		// ringKeep, so appends stay amortized-cheap under overflow.
		drop := r.count - ringKeep + 1
		r.start = (r.start + drop) % len(r.buf)
		r.count -= drop
	}
	r.buf[(r.start+r.count)%len(r.buf)] = rec
	r.count++
}

// snapshot returns records oldest-first.
func (r *ring) snapshot() []AuditRecord {
	out := make([]AuditRecord, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

// query returns the most recent records matching the filter, newest
// first, honoring Limit when positive.
func (r *ring) query(f AuditFilter) []AuditRecord {
	var out []AuditRecord
	for i := r.count - 1; i >= 0; i-- {
		rec := r.buf[(r.start+i)%len(r.buf)]
		if f.Operation != "" && rec.Operation != f.Operation {
			continue
		}
		if f.Domain != "" && rec.Domain != f.Domain {
			continue
		}
		if f.Success != nil && rec.Success != *f.Success {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

package emission

import (
	"fmt"
	"sort"
)

// Entry is the APR curve that became effective at Timestamp.
type Entry struct {
	Timestamp int64 `json:"timestamp"`
	Curve     Curve `json:"curve"`
}

// Segment is a half open interval [Start, End) with a single curve.
type Segment struct {
	Start int64
	End   int64
	Curve Curve
}

// History is the time ordered log of APR curves.  Timestamps are strictly
// increasing and the first entry is the seed written at pool start.
type History struct {
	entries []Entry
}

// NewHistory seeds a history with the curve live at start.
func NewHistory(start int64, seed Curve) *History {
	return &History{entries: []Entry{{Timestamp: start, Curve: seed}}}
}

// RestoreHistory rebuilds a history from persisted entries.
func RestoreHistory(entries []Entry) (*History, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty rate history")
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp <= entries[i-1].Timestamp {
			return nil, fmt.Errorf("rate history not strictly increasing at index %d (%d <= %d)",
				i, entries[i].Timestamp, entries[i-1].Timestamp)
		}
	}
	h := &History{entries: make([]Entry, len(entries))}
	copy(h.entries, entries)
	return h, nil
}

// Clone returns an independent copy.
func (h *History) Clone() *History {
	c := &History{entries: make([]Entry, len(h.entries))}
	copy(c.entries, h.entries)
	return c
}

// Entries returns a copy of the log.
func (h *History) Entries() []Entry {
	res := make([]Entry, len(h.entries))
	copy(res, h.entries)
	return res
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Append records curve as effective from effectiveAt.  Entries that were
// still pending at now are dropped first, so the latest governance call wins.
func (h *History) Append(now int64, effectiveAt int64, curve Curve) {
	if effectiveAt < now {
		effectiveAt = now
	}

	keep := len(h.entries)
	for keep > 1 && h.entries[keep-1].Timestamp > now {
		keep--
	}
	h.entries = h.entries[:keep]

	last := &h.entries[len(h.entries)-1]
	if last.Timestamp == effectiveAt {
		last.Curve = curve
		return
	}
	if last.Timestamp > effectiveAt {
		// Seed written ahead of now; keep timestamps strictly increasing.
		h.entries[len(h.entries)-1] = Entry{Timestamp: effectiveAt, Curve: curve}
		return
	}
	h.entries = append(h.entries, Entry{Timestamp: effectiveAt, Curve: curve})
}

// index returns the position of the entry active at t, or 0 for the seed.
func (h *History) index(t int64) int {
	i := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].Timestamp > t
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// At returns the curve active at t.
func (h *History) At(t int64) Curve {
	return h.entries[h.index(t)].Curve
}

// Latest returns the last recorded curve, pending or not.
func (h *History) Latest() Curve {
	return h.entries[len(h.entries)-1].Curve
}

// PendingAt returns the entry that is scheduled after now, if any.
func (h *History) PendingAt(now int64) (Entry, bool) {
	last := h.entries[len(h.entries)-1]
	if len(h.entries) > 1 && last.Timestamp > now {
		return last, true
	}
	return Entry{}, false
}

// Between partitions [t0, t1) at every entry timestamp strictly inside it.
func (h *History) Between(t0, t1 int64) []Segment {
	if t1 <= t0 {
		return nil
	}

	i := h.index(t0)
	curve := h.entries[i].Curve
	start := t0

	var segs []Segment
	for j := i + 1; j < len(h.entries) && h.entries[j].Timestamp < t1; j++ {
		ts := h.entries[j].Timestamp
		if ts > start {
			segs = append(segs, Segment{Start: start, End: ts, Curve: curve})
			start = ts
		}
		curve = h.entries[j].Curve
	}
	return append(segs, Segment{Start: start, End: t1, Curve: curve})
}

// Prune drops the entries that end before the given timestamp.  The entry
// active at before is kept and becomes the new head.  It returns the number of
// dropped entries.
func (h *History) Prune(before int64) int {
	i := h.index(before)
	if i == 0 {
		return 0
	}
	h.entries = append([]Entry(nil), h.entries[i:]...)
	return i
}

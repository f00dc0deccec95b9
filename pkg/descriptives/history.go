package descriptives

import (
	"sort"
	"time"
)

// History is a time-ordered series of snapshots keyed by fetch time,
// in RFC3339. This is the shape the dashboard keeps in memory and the
// history stores persist.
type History map[string]Snapshot

// Add records a snapshot fetched at the given time.
func (h History) Add(at time.Time, s Snapshot) {
	h[at.Format(time.RFC3339)] = s
}

// Timestamps lists the recorded fetch times, oldest first.
func (h History) Timestamps() []string {
	ts := make([]string, 0, len(h))
	for t := range h {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339, ts[i])
		tj, errj := time.Parse(time.RFC3339, ts[j])
		if erri != nil || errj != nil {
			return ts[i] < ts[j]
		}
		return ti.Before(tj)
	})
	return ts
}

// Latest returns the most recent snapshot and its timestamp.
//
// ok is false when the history is empty.
func (h History) Latest() (at string, snapshot Snapshot, ok bool) {
	ts := h.Timestamps()
	if len(ts) == 0 {
		return "", nil, false
	}
	latest := ts[len(ts)-1]
	return latest, h[latest], true
}

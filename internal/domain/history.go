package domain

import (
	"slices"
	"time"
)

// ViewEntry records one book a user opened.
type ViewEntry struct {
	Title     string    `json:"title"`
	Genres    []string  `json:"genres"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryLog is a user's recent views ordered oldest first, newest last.
type HistoryLog []ViewEntry

// Latest returns the most recent entry.
func (h HistoryLog) Latest() (ViewEntry, bool) {
	if len(h) == 0 {
		return ViewEntry{}, false
	}
	return h[len(h)-1], true
}

// Push returns the log with entry appended and trimmed to capacity, oldest
// entries dropped first. When the newest entry already has the same title
// the log is returned unchanged and changed is false.
//
// The receiver is never modified, so callers can hand out the old slice as
// a snapshot while the new one is being stored.
func (h HistoryLog) Push(entry ViewEntry, capacity int) (next HistoryLog, changed bool) {
	if latest, ok := h.Latest(); ok && TitleKey(latest.Title) == TitleKey(entry.Title) {
		return h, false
	}

	keep := h
	if capacity > 0 && len(keep) >= capacity {
		keep = keep[len(keep)-capacity+1:]
	}

	next = make(HistoryLog, 0, len(keep)+1)
	next = append(next, keep...)
	next = append(next, entry)
	return next, true
}

// Recent returns the newest n entries, or the whole log when n <= 0 or the
// log is already that short. The result shares the receiver's backing array.
func (h HistoryLog) Recent(n int) HistoryLog {
	if n <= 0 || len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// Titles returns the folded title keys of every entry.
func (h HistoryLog) Titles() map[string]struct{} {
	set := make(map[string]struct{}, len(h))
	for _, e := range h {
		set[TitleKey(e.Title)] = struct{}{}
	}
	return set
}

// Clone returns a deep copy safe to hand to callers.
func (h HistoryLog) Clone() HistoryLog {
	if h == nil {
		return HistoryLog{}
	}
	out := make(HistoryLog, len(h))
	for i, e := range h {
		e.Genres = slices.Clone(e.Genres)
		out[i] = e
	}
	return out
}

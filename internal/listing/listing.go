// Package listing derives the dashboard's filtered and merged views from
// fetched collections. Nothing here touches storage.
package listing

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayLayout is how calendar dates are entered and shown.
const DayLayout = "02.01.2006"

// Filter keeps the items whose field contains term, ignoring case. An empty
// term keeps everything. The result is never nil.
func Filter[T any](items []T, term string, field func(T) string) []T {
	out := make([]T, 0, len(items))
	needle := strings.ToLower(strings.TrimSpace(term))
	for _, it := range items {
		if needle == "" || strings.Contains(strings.ToLower(field(it)), needle) {
			out = append(out, it)
		}
	}
	return out
}

// SortByTime orders items by the time at returns. Equal times keep their
// input order.
func SortByTime[T any](items []T, at func(T) time.Time, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return at(items[i]).After(at(items[j]))
		}
		return at(items[i]).Before(at(items[j]))
	})
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// ParseDay parses a DayLayout date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must look like dd.mm.yyyy", s)
	}
	return t, nil
}

// FormatDay renders t as a DayLayout date in loc.
func FormatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// MergeByID returns base with every item replaced by the overlay item
// carrying the same id. Overlay items absent from base are dropped.
func MergeByID[T any](base, overlay []T, id func(T) string) []T {
	byID := make(map[string]T, len(overlay))
	for _, o := range overlay {
		byID[id(o)] = o
	}
	out := make([]T, len(base))
	for i, b := range base {
		if o, ok := byID[id(b)]; ok {
			out[i] = o
		} else {
			out[i] = b
		}
	}
	return out
}

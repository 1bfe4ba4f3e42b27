package refdata

import (
	"sort"

	"github.com/mzavyalov/bankdm/internal/model"
)

// version is one effective-dated record in a timeline.
// A nil end means the interval is open-ended.
type version[T any] struct {
	start model.Date
	end   *model.Date
	value T
}

// timeline holds the versions of one entity key, sorted by start date
// ascending. Lookup is a binary search for the latest start <= d, then a
// backward walk over interval-containing candidates. For non-overlapping
// histories (accounts, currencies) the walk stops at the first candidate;
// for exchange rates, where versions may overlap, the walk implements the
// latest-start-wins rule.
type timeline[T any] struct {
	versions []version[T]
}

func (tl *timeline[T]) add(start model.Date, end *model.Date, value T) {
	tl.versions = append(tl.versions, version[T]{start: start, end: end, value: value})
}

func (tl *timeline[T]) sortByStart() {
	sort.SliceStable(tl.versions, func(i, j int) bool {
		return tl.versions[i].start.Before(tl.versions[j].start)
	})
}

// at returns the authoritative version for date d: among versions whose
// interval contains d, the one with the latest start date.
func (tl *timeline[T]) at(d model.Date) (T, bool) {
	// First index with start > d.
	i := sort.Search(len(tl.versions), func(i int) bool {
		return tl.versions[i].start.After(d)
	})
	for j := i - 1; j >= 0; j-- {
		v := tl.versions[j]
		if v.end == nil || !v.end.Before(d) {
			return v.value, true
		}
	}
	var zero T
	return zero, false
}

// latestOverlapping returns the version with the latest start date whose
// interval intersects [from, to].
func (tl *timeline[T]) latestOverlapping(from, to model.Date) (T, bool) {
	for j := len(tl.versions) - 1; j >= 0; j-- {
		v := tl.versions[j]
		if v.start.After(to) {
			continue
		}
		if v.end != nil && v.end.Before(from) {
			continue
		}
		return v.value, true
	}
	var zero T
	return zero, false
}

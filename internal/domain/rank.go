package domain

import (
	"cmp"
	"slices"
)

// DefaultTopN is the number of records returned when the caller asks for none.
const DefaultTopN = 10

// RankKey is the recency key used to order records: fechaevento when set and
// non-zero, otherwise ingresado_ts, otherwise zero.
func RankKey(e SeismicEvent) int64 {
	if e.FechaEvento != nil && *e.FechaEvento != 0 {
		return *e.FechaEvento
	}
	return e.IngresadoTS
}

// TopN returns the n most recent events of page by RankKey, newest first.
// Ties keep their page order. The input slice is not modified. A non-positive
// n uses DefaultTopN.
func TopN(page []SeismicEvent, n int) []SeismicEvent {
	if n <= 0 {
		n = DefaultTopN
	}
	sorted := slices.Clone(page)
	slices.SortStableFunc(sorted, func(a, b SeismicEvent) int {
		return cmp.Compare(RankKey(b), RankKey(a))
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

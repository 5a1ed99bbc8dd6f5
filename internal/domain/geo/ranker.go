package geo

import "sort"

// Candidate is a restaurant considered for an order, with its resolved
// coordinate. Resolved=false marks a restaurant whose address never geocoded.
type Candidate struct {
	ID       string
	Coord    Coordinate
	Resolved bool
}

// Ranked is a candidate annotated with its distance from the order address.
type Ranked struct {
	ID       string
	Distance float64 // kilometers, full precision
	Resolved bool
}

// Rank orders candidates by ascending great-circle distance from origin.
// The sort is stable: candidates at equal distance keep their input order.
// Candidates without a resolved coordinate sort after all resolved ones,
// also keeping input order. Output length always equals input length.
func Rank(origin Coordinate, candidates []Candidate) []Ranked {
	out := make([]Ranked, len(candidates))
	for i, c := range candidates {
		out[i] = Ranked{ID: c.ID, Resolved: c.Resolved}
		if c.Resolved {
			out[i].Distance = Distance(origin, c.Coord)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Resolved != out[j].Resolved {
			return out[i].Resolved
		}
		if !out[i].Resolved {
			return false
		}
		return out[i].Distance < out[j].Distance
	})
	return out
}

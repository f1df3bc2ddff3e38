package covid

import "github.com/i474232898/quickcheck/internal/common"

// ProportionsOf derives each counter's share of the record total.
// A zero total yields all-zero shares.
func ProportionsOf(r Record) Proportions {
	return Proportions{
		Confirmed: share(r.Confirmed, r.Total),
		Deaths:    share(r.Deaths, r.Total),
		Recovered: share(r.Recovered, r.Total),
	}
}

// Proportions is shorthand for ProportionsOf(r).
func (r Record) Proportions() Proportions {
	return ProportionsOf(r)
}

func share(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return common.Clamp(float64(part)/float64(total), 0, 1)
}

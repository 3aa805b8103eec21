package session

import (
	"math"
	"sort"

	"github.com/xtding233/doko-backend/internal/doko"
)

// Stats summarizes the rounds of one game.
type Stats struct {
	Rounds     int     `json:"rounds"`
	BockRounds int     `json:"bock_rounds"`
	SoloRounds int     `json:"solo_rounds"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stddev"`
	P50        float64 `json:"p50"`
	P90        float64 `json:"p90"`
	Max        float64 `json:"max"`
	// Wins counts rounds each participant ended on the winning side.
	Wins map[string]int `json:"wins"`
}

// GameStats computes round-value statistics and per-player win counts.
func GameStats(g Game) Stats {
	st := Stats{Rounds: len(g.Rounds), Wins: make(map[string]int, len(g.Participants))}
	for _, p := range g.Participants {
		st.Wins[p.ID] = 0
	}
	values := make([]float64, 0, len(g.Rounds))
	for _, r := range g.Rounds {
		v, _ := r.Value.Float64()
		values = append(values, v)
		if r.IsBock() {
			st.BockRounds++
		}
		if r.Outcome != doko.OutcomeTeam {
			st.SoloRounds++
		}
		for _, id := range r.Winners {
			if _, ok := st.Wins[id]; ok {
				st.Wins[id]++
			}
		}
	}

	n := len(values)
	if n == 0 {
		return st
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	// population variance
	var acc float64
	for _, v := range values {
		d := v - mean
		acc += d * d
	}

	cp := append([]float64(nil), values...)
	sort.Float64s(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return cp[0]
		}
		if p >= 1 {
			return cp[n-1]
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return cp[i]
		}
		return cp[i]*(1-f) + cp[i+1]*f
	}

	st.Mean = mean
	st.StdDev = math.Sqrt(acc / float64(n))
	st.P50 = percentile(0.50)
	st.P90 = percentile(0.90)
	st.Max = cp[n-1]
	return st
}

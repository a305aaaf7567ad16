package searcher

import "math"

// uct = W/n + c*sqrt(ln(N)/n), +Inf for unvisited nodes
func uct(value float64, visits int, c float64, logN float64) float64 {
	// Prioritize unexplored nodes
	if visits == 0 {
		return math.Inf(1)
	}

	n := float64(visits)
	return value/n + c*math.Sqrt(logN/n)
}

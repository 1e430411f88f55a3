package matrix

// Stats summarizes the distribution of items over the quadrants.
type Stats struct {
	Total            int              `json:"total"`
	ByQuadrant       map[Quadrant]int `json:"byQuadrant"`
	MostUsedQuadrant Quadrant         `json:"mostUsedQuadrant"`
	IsEmpty          bool             `json:"isEmpty"`
}

// GetStats computes the current Stats.
//
// MostUsedQuadrant is the quadrant with the strictly greatest count, scanning
// from 1. Ties go to the lower quadrant, so an empty matrix reports DoFirst.
func (m *Matrix) GetStats() Stats {
	s := Stats{
		ByQuadrant:       make(map[Quadrant]int, len(Quadrants)),
		MostUsedQuadrant: DoFirst,
	}
	maxCount := 0
	for _, q := range Quadrants {
		n := len(m.buckets[q])
		s.ByQuadrant[q] = n
		s.Total += n
		if n > maxCount {
			maxCount = n
			s.MostUsedQuadrant = q
		}
	}
	s.IsEmpty = s.Total == 0
	return s
}

package catalog

import "sort"

// Match is one nearest-neighbor search hit. Distance is normalized cosine
// distance: 1 - dot product of unit vectors, so 0 is identical and 2 is
// opposite.
type Match struct {
	ProductID string
	Distance  float64
}

// Search returns up to k catalog entries nearest to the query vector,
// skipping excluded ids and entries with stock at or below minStock.
// Results are ordered by ascending distance.
func (x *Index) Search(vector []float32, k int, exclude map[string]bool, minStock int) []Match {
	if k <= 0 || len(vector) == 0 {
		return nil
	}
	query := normalize(vector)
	if query == nil {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]Match, 0, len(x.order))
	for _, id := range x.order {
		e := x.entries[id]
		if exclude[id] || e.Stock <= minStock || len(e.Embedding) == 0 {
			continue
		}
		matches = append(matches, Match{ProductID: id, Distance: 1 - dot(query, e.Embedding)})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

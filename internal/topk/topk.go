// Package topk keeps the ten best scores seen in a single pass over a score
// vector.
//
// A candidate is admitted when its score is greater than or equal to the score
// currently held in slot 0. Admission shifts every slot down by one, dropping
// slot 9, and writes the candidate into slot 0. Slot 0 therefore always holds
// the most recently admitted maximum, ties go to the later index, and scores
// below the zero-initialized slots (and NaN) are never admitted. This is not a sorted
// top-k and callers must not treat it as one.
package topk

// K is the number of retained entries.
const K = 10

// Entry is one retained (class index, score) pair.
type Entry struct {
	Index int
	Score float32
}

// Result holds the retained entries in slot order.
type Result struct {
	indices [K]int
	scores  [K]float32
}

// Select scans scores in index order and returns the retained entries.
func Select(scores []float32) Result {
	var r Result
	for i, s := range scores {
		r.offer(i, s)
	}
	return r
}

func (r *Result) offer(index int, score float32) {
	// NaN never satisfies >=, so it is never admitted.
	if !(score >= r.scores[0]) {
		return
	}
	copy(r.scores[1:], r.scores[:K-1])
	copy(r.indices[1:], r.indices[:K-1])
	r.scores[0] = score
	r.indices[0] = index
}

// Entries returns the K entries, slot 0 first.
func (r Result) Entries() []Entry {
	out := make([]Entry, K)
	for i := range out {
		out[i] = Entry{Index: r.indices[i], Score: r.scores[i]}
	}
	return out
}

// Top returns slot 0.
func (r Result) Top() Entry {
	return Entry{Index: r.indices[0], Score: r.scores[0]}
}

package metrics

// RatioCounter accumulates count/total over many updates, e.g. the number of
// misclassified samples over the number of samples seen.
type RatioCounter struct {
	count int
	total int
}

// Feed adds count hits out of total samples.
func (r *RatioCounter) Feed(count, total int) {
	r.count += count
	r.total += total
}

// Ratio is the accumulated count divided by the accumulated total, or 0 when
// nothing was fed.
func (r *RatioCounter) Ratio() float64 {
	if r.total == 0 {
		return 0
	}
	return float64(r.count) / float64(r.total)
}

// Count returns the accumulated count.
func (r *RatioCounter) Count() int { return r.count }

// Total returns the accumulated total.
func (r *RatioCounter) Total() int { return r.total }

// Reset clears the counter.
func (r *RatioCounter) Reset() { *r = RatioCounter{} }

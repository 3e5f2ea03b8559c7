package logging

// ProgressSampler thins out progress logs to one line per percentage bucket.
// The first and final observations always emit.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the completion
// percentage crosses a bucket boundary (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether completed/total should be logged. A non-positive
// total always logs since there is nothing to bucket.
func (s *ProgressSampler) ShouldLog(completed, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	if completed >= total {
		s.lastBucket = int(100 / s.bucketSize)
		return true
	}
	percent := float64(completed) * 100 / float64(total)
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}

// Reset clears the sampler state for a new run.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
}

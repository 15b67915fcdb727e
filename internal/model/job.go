package model

// Job is one date queued for download.
//
// URL holds the image URL when it was already known from the URL cache, in
// which case the source page is never fetched. Slot is a display label
// (Index modulo the concurrency) and never used for mutual exclusion.
type Job struct {
	Index int
	Slot  int
	Date  Date
	URL   string
}

// Cached reports whether the job carries a pre-resolved image URL.
func (j Job) Cached() bool {
	return j.URL != ""
}

// NewJobs builds one job per date, in order, filling in image URLs found in
// cached. cached may be nil.
func NewJobs(dates []Date, cached map[Date]string, concurrency int) []Job {
	if concurrency < 1 {
		concurrency = 1
	}
	jobs := make([]Job, len(dates))
	for i, d := range dates {
		jobs[i] = Job{
			Index: i,
			Slot:  i % concurrency,
			Date:  d,
			URL:   cached[d],
		}
	}
	return jobs
}

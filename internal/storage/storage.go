package storage

import (
	"context"
	"time"
)

// Kind distinguishes the search results page from the result pages it links to.
type Kind string

const (
	KindSERP   Kind = "serp"
	KindPage   Kind = "page"
	KindRobots Kind = "robots"
)

// FetchRecord captures the outcome of a single outbound GET made during a run.
type FetchRecord struct {
	ID           string              `json:"id"`
	URL          string              `json:"url"`
	Kind         Kind                `json:"kind"`
	StatusCode   int                 `json:"status_code"`
	Headers      map[string][]string `json:"headers,omitempty"`
	Body         []byte              `json:"-"`
	Duration     time.Duration       `json:"duration"`
	DetectedBot  bool                `json:"detected_bot"`
	DetectionSrc string              `json:"detection_src,omitempty"` // e.g. "Cloudflare", "Google"
	CreatedAt    time.Time           `json:"created_at"`
	Error        string              `json:"error,omitempty"` // non-empty if the fetch failed before an HTTP response
}

// OK reports whether the fetch produced a 2xx response without a transport error.
func (r *FetchRecord) OK() bool {
	return r != nil && r.Error == "" && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Filter selects FetchRecords from a Recorder.
type Filter struct {
	Kind        Kind
	DetectedBot *bool
	Failed      *bool
	Limit       int
}

// Recorder keeps the fetch records of the current run. Records never outlive the process.
type Recorder interface {
	Save(ctx context.Context, rec *FetchRecord) error
	Query(ctx context.Context, filter Filter) ([]*FetchRecord, error)
	Close() error
}

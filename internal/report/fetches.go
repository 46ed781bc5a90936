package report

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/serpwords/internal/storage"
)

// FetchSummary contains aggregated metrics about the fetches made during a run.
type FetchSummary struct {
	TotalRequests   int                  `json:"total_requests"`
	TotalErrors     int                  `json:"total_errors"`
	TotalDetections int                  `json:"total_detections"`
	ByKind          map[storage.Kind]int `json:"by_kind"`
	StatusCodes     map[int]int          `json:"status_codes"`
	DetectionsBySrc map[string]int       `json:"detections_by_source"`
	TotalBytes      int64                `json:"total_bytes"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	Duration        time.Duration        `json:"duration"`
}

// SummarizeFetches processes fetch records to generate summary metrics.
func SummarizeFetches(records []*storage.FetchRecord) FetchSummary {
	s := FetchSummary{
		ByKind:          make(map[storage.Kind]int),
		StatusCodes:     make(map[int]int),
		DetectionsBySrc: make(map[string]int),
	}

	if len(records) == 0 {
		return s
	}

	s.StartTime = records[0].CreatedAt
	s.EndTime = records[0].CreatedAt.Add(records[0].Duration)

	for _, r := range records {
		s.TotalRequests++
		s.ByKind[r.Kind]++
		if r.Error != "" {
			s.TotalErrors++
		}
		if r.DetectedBot {
			s.TotalDetections++
			s.DetectionsBySrc[r.DetectionSrc]++
		}
		if r.StatusCode > 0 {
			s.StatusCodes[r.StatusCode]++
		}
		s.TotalBytes += int64(len(r.Body))

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if end := r.CreatedAt.Add(r.Duration); end.After(s.EndTime) {
			s.EndTime = end
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

const fetchTmpl = `Fetch Summary
-------------
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Total Fetch:   {{.TotalRequests}} requests
{{- range $kind, $count := .ByKind}}
  {{$kind}}: {{$count}}
{{- end}}
Total Bytes:   {{.TotalBytes}} bytes
Total Errors:  {{.TotalErrors}}

Status Codes:
{{- range $code, $count := .StatusCodes}}
  {{$code}}: {{$count}}
{{- else}}
  None
{{- end}}

Detections: {{.TotalDetections}}
{{- range $src, $count := .DetectionsBySrc}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}
`

var fetchTemplate = template.Must(template.New("fetchSummary").Parse(fetchTmpl))

// WriteFetchSummary writes a human-readable fetch summary.
func WriteFetchSummary(w io.Writer, summary FetchSummary) error {
	if err := fetchTemplate.Execute(w, summary); err != nil {
		return fmt.Errorf("failed to render fetch summary: %w", err)
	}
	return nil
}

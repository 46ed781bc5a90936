// Package report renders a run's results for the console, as JSON, or as a
// standalone HTML page.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"

	"github.com/FranksOps/serpwords/internal/pipeline"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat maps a flag value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// NoResultCountMessage is printed instead of a report when the search yields
// no usable result count.
const NoResultCountMessage = "Failed to retrieve results count."

// Document bundles a run with its fetch summary for the JSON and HTML renderers.
type Document struct {
	Run     *pipeline.Report `json:"run"`
	Fetches FetchSummary     `json:"fetches"`
}

const runTmpl = `Number of results for '{{.Query}}': {{.ResultCount}}

Top {{.TopK}} Most Frequent Words:
{{- range .Keywords}}
{{.Word}}
{{- end}}

Summary:
{{if .HasSummary}}{{.Summary}}{{else}}Failed to generate summary for '{{.Query}}'.{{end}}

Popularity/Number of searches: {{.ResultCount}}
`

var runTemplate = template.Must(template.New("run").Parse(runTmpl))

// WriteText writes the console report.
func WriteText(w io.Writer, rep *pipeline.Report) error {
	if err := runTemplate.Execute(w, rep); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteNoResultCount writes the message shown when the search failed.
func WriteNoResultCount(w io.Writer) error {
	_, err := fmt.Fprintln(w, NoResultCountMessage)
	return err
}

// WriteJSON writes the document in indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>serpwords: {{.Run.Query}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>{{.Run.Query}}</h1>
  <p><strong>Run:</strong> {{.Run.StartedAt.Format "2006-01-02 15:04:05"}} ({{.Run.Duration}})</p>

  <div class="stat-card">
    <div>Results</div>
    <div class="stat-val">{{.Run.ResultCount}}</div>
  </div>
  <div class="stat-card">
    <div>Pages</div>
    <div class="stat-val">{{len .Run.Pages}}</div>
  </div>
  <div class="stat-card">
    <div>Detections</div>
    <div class="stat-val" style="color: {{if gt .Fetches.TotalDetections 0}}red{{else}}green{{end}};">{{.Fetches.TotalDetections}}</div>
  </div>

  <h3>Top {{.Run.TopK}} Most Frequent Words</h3>
  <table>
    <tr><th>Word</th><th>Count</th></tr>
    {{- range .Run.Keywords}}
    <tr><td>{{.Word}}</td><td>{{.Count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Summary</h3>
  {{- if .Run.HasSummary}}
  <p>{{.Run.Summary}}</p>
  {{- else}}
  <p>Failed to generate summary for '{{.Run.Query}}'.</p>
  {{- end}}

  <h3>Pages</h3>
  <table>
    <tr><th>URL</th><th>Status</th><th>Keywords</th><th>Sentences</th><th>Error</th></tr>
    {{- range .Run.Pages}}
    <tr><td><a href="{{.URL}}">{{.URL}}</a></td><td>{{.Status}}</td><td>{{.Keywords}}</td><td>{{.Sentences}}</td><td>{{.Error}}</td></tr>
    {{- else}}
    <tr><td colspan="5">None</td></tr>
    {{- end}}
  </table>

  <h3>Status Codes</h3>
  <table>
    <tr><th>Code</th><th>Count</th></tr>
    {{- range $code, $count := .Fetches.StatusCodes}}
    <tr><td>{{$code}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

var htmlTemplate = htmltemplate.Must(htmltemplate.New("htmlReport").Parse(htmlTmpl))

// WriteHTML writes a standalone HTML page.
func WriteHTML(w io.Writer, doc Document) error {
	if err := htmlTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// Write renders doc in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatHTML:
		return WriteHTML(w, doc)
	default:
		return WriteText(w, doc.Run)
	}
}

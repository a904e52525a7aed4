package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var minutesTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/minutes.html")
	if err != nil {
		// Fallback to built-in template if file not found
		minutesTemplate = template.Must(template.New("minutes").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	minutesTemplate = template.Must(template.New("minutes").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for minutes template rendering
type TemplateData struct {
	Name         string
	Owner        string
	CreatedAt    time.Time
	Transcripts  []TemplateTranscript
	ActionPoints []TemplateActionPoint
}

// TemplateTranscript holds transcript data for the template
type TemplateTranscript struct {
	Content   string
	CreatedAt time.Time
}

// TemplateActionPoint holds action point data for the template
type TemplateActionPoint struct {
	Title       string
	IsCompleted bool
}

// RenderMinutesHTML renders the minutes template with provided data
func RenderMinutesHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := minutesTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Name}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .transcript { white-space: pre-wrap; margin: 1rem 0; }
    .done { text-decoration: line-through; color: #888; }
  </style>
</head>
<body>
  <h1>{{.Name}}</h1>
  <div class="meta">{{.Owner}} | {{.CreatedAt.Format "Jan 2, 2006"}}</div>
  {{range .Transcripts}}<div class="transcript">{{.Content}}</div>{{end}}
  {{if .ActionPoints}}
  <h2>Action points</h2>
  <ul>
  {{range .ActionPoints}}<li{{if .IsCompleted}} class="done"{{end}}>{{.Title}}</li>{{end}}
  </ul>
  {{end}}
</body>
</html>`

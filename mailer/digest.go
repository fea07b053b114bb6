// Package mailer renders the summarized records as an HTML digest and
// delivers it over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/pevans/nbudigest/locale"
	"github.com/pevans/nbudigest/newsfeed"
)

// Subject is the digest email subject line.
const Subject = "Щоденне зведення новин НБУ"

var digestTemplate = template.Must(template.New("digest").Parse(`<h1>Щоденне зведення новин НБУ</h1>
<p>Дата: {{.Date}}</p>
<ul>
{{- range .Items}}
  <li>
    <h2>{{.Title}}</h2>
    <p><strong>Категорія:</strong> {{.Category}}</p>
    <p><strong>Дата публікації:</strong> {{if .Date}}{{.Date}}{{else}}невказана{{end}}</p>
    <p>{{.Summary}}</p>
    <p>{{if .Link}}<a href="{{.Link}}">Читати далі</a>{{else}}Посилання відсутнє{{end}}</p>
  </li>
{{- end}}
</ul>
`))

type digestItem struct {
	Title    string
	Category string
	Date     string
	Summary  string
	Link     string
}

type digestView struct {
	Date  string
	Items []digestItem
}

// RenderDigest renders records as an HTML fragment dated on the given day.
func RenderDigest(records []newsfeed.NewsRecord, day time.Time) (string, error) {
	view := digestView{Date: locale.FormatDisplay(day)}
	for _, rec := range records {
		view.Items = append(view.Items, digestItem{
			Title:    rec.Title,
			Category: rec.Category,
			Date:     rec.DateString(),
			Summary:  rec.Summary,
			Link:     rec.LinkString(),
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}

// Package compose renders the digest email body.
package compose

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"

	"github.com/latifnjimoluh/veille/internal/schema"
)

var md = goldmark.New()

// The layout uses inline styles only; most mail clients drop
// stylesheet blocks.
const emailTemplate = `<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;color:#333333;">
  <div style="max-width:640px;margin:0 auto;padding:24px;">
    <h1 style="font-size:22px;color:#1a1a2e;border-bottom:3px solid #4361ee;padding-bottom:8px;">{{.Heading}}</h1>
    <p style="font-size:14px;color:#666666;">Digest du {{.Date}} &mdash; {{len .Items}} article(s)</p>
    {{if .Narrative}}
    <div style="background-color:#ffffff;border-radius:8px;padding:16px 20px;margin-bottom:24px;border-left:4px solid #4361ee;">
      {{.Narrative}}
    </div>
    {{end}}
    <ul style="list-style:none;padding:0;margin:0;">
      {{range .Items}}
      <li style="background-color:#ffffff;border-radius:8px;padding:16px 20px;margin-bottom:16px;box-shadow:0 1px 3px rgba(0,0,0,0.08);">
        <h2 style="font-size:16px;margin:0 0 6px 0;">
          {{if .URL}}<a href="{{.URL}}" style="color:#4361ee;text-decoration:none;">{{.Title}}</a>{{else}}{{.Title}}{{end}}
        </h2>
        <p style="font-size:12px;color:#888888;margin:0 0 8px 0;">
          <span style="background-color:#eef1ff;color:#4361ee;padding:2px 8px;border-radius:10px;">{{.Category}}</span>
          {{if .PublishedAt}} &middot; {{.PublishedAt}}{{end}}
          {{if .CreatedBy}} &middot; {{.CreatedBy}}{{end}}
        </p>
        {{if .Summary}}
        <p style="font-size:14px;line-height:1.5;margin:0;white-space:pre-line;">{{.Summary}}</p>
        {{else}}
        <p style="font-size:14px;line-height:1.5;margin:0;">{{.Description}}</p>
        {{end}}
      </li>
      {{end}}
    </ul>
    <p style="font-size:12px;color:#aaaaaa;text-align:center;margin-top:24px;">Envoyé automatiquement par veille.</p>
  </div>
</body>
</html>`

var emailTmpl = template.Must(template.New("email").Parse(emailTemplate))

type emailData struct {
	Heading   string
	Date      string
	Items     []schema.Item
	Narrative template.HTML
}

// BuildEmail renders the digest for a variant. The narrative, when
// present, is markdown and gets converted to HTML.
func BuildEmail(v schema.Variant, items []schema.Item, narrative string) (subject, body string, err error) {
	now := time.Now().Format("02/01/2006")
	subject = fmt.Sprintf("Veille %s du %s", v.Name, now)

	data := emailData{
		Heading: fmt.Sprintf("Veille %s", v.Name),
		Date:    now,
		Items:   items,
	}
	if narrative != "" {
		data.Narrative = renderMarkdown(narrative)
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering email: %w", err)
	}
	return subject, buf.String(), nil
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

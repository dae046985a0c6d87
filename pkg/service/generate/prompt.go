package generate

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/*.md
var promptFS embed.FS

//go:embed prompt/blog_style.html
var blogStyle string

var promptTmpl = template.Must(template.ParseFS(promptFS, "prompt/*.md"))

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute prompt template", goerr.V("template", name))
	}
	return buf.String(), nil
}

package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/sweetpotato0/hfagents/tool"
)

// Template represents a prompt template with variables
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// NewTemplate creates a new prompt template
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// Render renders the template with the given data
func (t *Template) Render(data any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// SystemData is what a system prompt template can refer to.
type SystemData struct {
	AgentName string
	Tools     []*tool.Tool
}

var toolList = template.Must(template.New("tools").Parse(
	`{{range .}}- {{.Name}}: {{.Description}}
{{range .Parameters}}    {{.Name}} ({{.Type}}{{if .Required}}, required{{end}}){{if .Description}}: {{.Description}}{{end}}
{{end}}{{end}}`))

// System renders base as a template over data and appends a section
// describing the tools, if any.
func System(base string, data SystemData) (string, error) {
	tmpl, err := NewTemplate("system", base)
	if err != nil {
		return "", err
	}
	rendered, err := tmpl.Render(data)
	if err != nil {
		return "", err
	}
	if len(data.Tools) == 0 {
		return rendered, nil
	}

	var tools strings.Builder
	if err := toolList.Execute(&tools, data.Tools); err != nil {
		return "", fmt.Errorf("failed to render tools: %w", err)
	}
	return NewBuilder().
		AddLine(rendered).
		AddSection("Tools", tools.String()).
		Build(), nil
}

// Builder helps build complex prompts
type Builder struct {
	parts []string
}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Add adds a part to the prompt
func (b *Builder) Add(part string) *Builder {
	b.parts = append(b.parts, part)
	return b
}

// AddLine adds a part with a newline
func (b *Builder) AddLine(part string) *Builder {
	b.parts = append(b.parts, part+"\n")
	return b
}

// AddSection adds a section with title and content
func (b *Builder) AddSection(title, content string) *Builder {
	b.parts = append(b.parts, fmt.Sprintf("## %s\n%s", title, content))
	return b
}

// Build returns the final prompt string
func (b *Builder) Build() string {
	return strings.TrimRight(strings.Join(b.parts, ""), "\n")
}

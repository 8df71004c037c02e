// Package prompts renders the model prompts from embedded YAML templates.
package prompts

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// Template names shipped with the service.
const (
	Questions  = "questions"
	Evaluation = "evaluation"
)

type promptFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// QuestionParams fills the question generation template.
type QuestionParams struct {
	Role      string
	Type      string
	Level     string
	TechStack string
	Amount    int
}

// EvaluationParams fills the transcript evaluation template.
type EvaluationParams struct {
	Transcript string
}

// Manager holds the parsed prompt templates.
type Manager struct {
	templates map[string]*template.Template
}

// NewManager loads every template under templates/.
func NewManager() (*Manager, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}

	m := &Manager{templates: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := templateFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}

		var file promptFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		if file.Name == "" {
			file.Name = strings.TrimSuffix(entry.Name(), ".yaml")
		}

		tmpl, err := template.New(file.Name).Option("missingkey=error").Parse(file.Template)
		if err != nil {
			return nil, fmt.Errorf("compile template %s: %w", file.Name, err)
		}
		m.templates[file.Name] = tmpl
	}

	return m, nil
}

// MustNewManager is NewManager for callers that cannot recover from broken
// embedded templates.
func MustNewManager() *Manager {
	m, err := NewManager()
	if err != nil {
		panic(err)
	}
	return m
}

// QuestionPrompt renders the question generation prompt.
func (m *Manager) QuestionPrompt(params QuestionParams) (string, error) {
	return m.render(Questions, params)
}

// EvaluationPrompt renders the transcript evaluation prompt.
func (m *Manager) EvaluationPrompt(params EvaluationParams) (string, error) {
	return m.render(Evaluation, params)
}

func (m *Manager) render(name string, data interface{}) (string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return builder.String(), nil
}

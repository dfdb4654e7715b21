// Package prompt builds the natural-language prompts sent to the inference
// backend. Templates live under templates/ and are embedded at compile time.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
)

//go:embed templates/categorization.tmpl
var categorizationTemplate string

//go:embed templates/script_generation.tmpl
var scriptGenerationTemplate string

var (
	categorizationTmpl   = template.Must(template.New("categorization").Parse(categorizationTemplate))
	scriptGenerationTmpl = template.Must(template.New("script_generation").Parse(scriptGenerationTemplate))
)

// Categorization renders the categorization prompt for the given sample rows
// and column schema. Both are embedded as indented JSON.
func Categorization(sampleRows []map[string]any, schema []string) (string, error) {
	sampleJSON, err := json.MarshalIndent(sampleRows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sample data: %w", err)
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	var buf bytes.Buffer
	err = categorizationTmpl.Execute(&buf, map[string]string{
		"SampleData": string(sampleJSON),
		"Schema":     string(schemaJSON),
	})
	if err != nil {
		return "", fmt.Errorf("render categorization prompt: %w", err)
	}
	return buf.String(), nil
}

// ScriptGeneration renders the Glue script generation prompt.
func ScriptGeneration(schema, categories []string, criteria map[string]any, sampleRows []map[string]any) (string, error) {
	sampleJSON, err := json.MarshalIndent(sampleRows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sample data: %w", err)
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return "", fmt.Errorf("marshal criteria: %w", err)
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return "", fmt.Errorf("marshal categories: %w", err)
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	var buf bytes.Buffer
	err = scriptGenerationTmpl.Execute(&buf, map[string]string{
		"Schema":     string(schemaJSON),
		"SampleData": string(sampleJSON),
		"Categories": string(categoriesJSON),
		"Criteria":   string(criteriaJSON),
	})
	if err != nil {
		return "", fmt.Errorf("render script generation prompt: %w", err)
	}
	return buf.String(), nil
}

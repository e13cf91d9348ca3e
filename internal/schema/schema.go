// Package schema validates model payloads against per-model JSON schemas.
//
// A schema is registered under the model it applies to; models without one
// accept any JSON object.
package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var builtin embed.FS

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message,omitempty"`
}

// ValidationError lists every field a payload got wrong.
type ValidationError struct {
	Model  string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s payload: %s", e.Model, strings.Join(parts, "; "))
}

type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles one schema document per model name.
func NewValidator(docs map[string][]byte) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(docs))}

	for model, doc := range docs {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %q: %w", model, err)
		}
		v.schemas[model] = s
	}

	return v, nil
}

// NewValidatorFromFS loads every *.json file in dir; the file name without
// extension is the model name.
func NewValidatorFromFS(fsys fs.FS, dir string) (*Validator, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	docs := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		doc, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %q: %w", e.Name(), err)
		}
		docs[strings.TrimSuffix(e.Name(), ".json")] = doc
	}

	return NewValidator(docs)
}

// Builtin returns the validator for the schemas shipped with the binary.
func Builtin() (*Validator, error) {
	return NewValidatorFromFS(builtin, "schemas")
}

func (v *Validator) Has(model string) bool {
	_, ok := v.schemas[model]
	return ok
}

// Validate returns a *ValidationError when attrs do not satisfy the model's
// schema, and nil when they do or no schema is registered.
func (v *Validator) Validate(model string, attrs map[string]any) error {
	s, ok := v.schemas[model]
	if !ok {
		return nil
	}

	if attrs == nil {
		attrs = map[string]any{}
	}

	res, err := s.Validate(gojsonschema.NewGoLoader(attrs))
	if err != nil {
		return fmt.Errorf("validate %s payload: %w", model, err)
	}
	if res.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		field := re.Field()
		if re.Type() == "required" {
			if p, ok := re.Details()["property"].(string); ok {
				field = p
			}
		}
		fields = append(fields, FieldError{
			Field:   field,
			Rule:    re.Type(),
			Message: re.Description(),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	return &ValidationError{Model: model, Fields: fields}
}

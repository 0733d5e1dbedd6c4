// Package response turns free-form model output into validated, typed values.
package response

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	RequirementsSchemaName = "requirements.schema.json"
	EvaluationSchemaName   = "evaluation.schema.json"
)

//go:embed schemas/*.schema.json
var schemaFiles embed.FS

var printer = message.NewPrinter(language.English)

// Schema is a compiled declared output schema.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document registered under name.
func CompileSchema(name string, raw []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}

	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return &Schema{name: name, compiled: compiled}, nil
}

// Document is a located, decoded and schema-valid JSON object.
type Document struct {
	Raw    string
	JSON   string
	Schema string
	Value  map[string]any
}

// Parser validates model output against the requirement and evaluation schemas.
type Parser struct {
	requirements *Schema
	evaluation   *Schema
}

// NewParser compiles the embedded schemas.
func NewParser() (*Parser, error) {
	requirements, err := loadSchema(RequirementsSchemaName)
	if err != nil {
		return nil, err
	}
	evaluation, err := loadSchema(EvaluationSchemaName)
	if err != nil {
		return nil, err
	}
	return &Parser{requirements: requirements, evaluation: evaluation}, nil
}

func loadSchema(name string) (*Schema, error) {
	raw, err := schemaFiles.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema %s: %w", name, err)
	}
	return CompileSchema(name, raw)
}

// Parse locates the JSON object in raw, decodes it and validates it against
// schema. Values are never coerced.
func (p *Parser) Parse(raw string, schema *Schema) (*Document, error) {
	if schema == nil {
		return nil, errors.New("schema is required")
	}

	fragment, value, err := locate(raw)
	if err != nil {
		return nil, err
	}

	object, ok := value.(map[string]any)
	if !ok {
		return nil, &SchemaViolationError{Schema: schema.name, Fields: []string{"/"}, Details: []string{"top-level value is not an object"}}
	}

	if err := schema.compiled.Validate(object); err != nil {
		return nil, classify(schema.name, err)
	}

	return &Document{Raw: raw, JSON: fragment, Schema: schema.name, Value: object}, nil
}

// classify maps schema failures to the error taxonomy. Structural problems
// take precedence over out-of-domain values.
func classify(schemaName string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &SchemaViolationError{Schema: schemaName, Fields: []string{"/"}, Details: []string{err.Error()}}
	}

	structural := &SchemaViolationError{Schema: schemaName}
	domain := &ValueDomainError{Schema: schemaName}

	for _, leaf := range leaves(ve) {
		loc := pointer(leaf.InstanceLocation)
		detail := fmt.Sprintf("%s: %s", loc, leaf.ErrorKind.LocalizedString(printer))

		switch k := leaf.ErrorKind.(type) {
		case *kind.Required:
			for _, missing := range k.Missing {
				structural.Fields = append(structural.Fields, pointer(append(append([]string{}, leaf.InstanceLocation...), missing)))
			}
			structural.Details = append(structural.Details, detail)
		case *kind.Enum, *kind.Const, *kind.Minimum, *kind.Maximum:
			domain.Fields = append(domain.Fields, loc)
			domain.Details = append(domain.Details, detail)
		default:
			structural.Fields = append(structural.Fields, loc)
			structural.Details = append(structural.Details, detail)
		}
	}

	if len(structural.Fields) > 0 {
		structural.Fields = dedupe(structural.Fields)
		return structural
	}
	if len(domain.Fields) > 0 {
		domain.Fields = dedupe(domain.Fields)
		return domain
	}
	return &SchemaViolationError{Schema: schemaName, Fields: []string{"/"}, Details: []string{ve.Error()}}
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func pointer(location []string) string {
	return "/" + strings.Join(location, "/")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func decode(value map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(value); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

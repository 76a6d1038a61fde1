// Package planfile reads inspection parameters from YAML documents.
package planfile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/qc.works/internal/sampling"
)

const schemaURL = "https://qc.works/schemas/planfile.json"

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("planfile: parse embedded schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		panic(fmt.Sprintf("planfile: add embedded schema: %v", err))
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("planfile: compile embedded schema: %v", err))
	}
	return schema
}

// Violation is one schema failure at a document path.
type Violation struct {
	Path    string
	Message string
}

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Path+": "+v.Message)
	}
	return "plan file does not match schema: " + strings.Join(parts, "; ")
}

// Load reads and parses the YAML plan file at path.
func Load(path string) (sampling.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sampling.Parameters{}, fmt.Errorf("read plan file: %w", err)
	}

	params, err := Parse(data)
	if err != nil {
		return sampling.Parameters{}, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}

// Parse validates data against the plan schema and decodes it.
// Domain checks that span fields (c <= n <= N) are left to sampling.Compute.
func Parse(data []byte) (sampling.Parameters, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return sampling.Parameters{}, fmt.Errorf("parse YAML: %w", err)
	}
	if doc == nil {
		return sampling.Parameters{}, &SchemaError{Violations: []Violation{{Path: "(root)", Message: "document is empty"}}}
	}

	if err := compiledSchema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return sampling.Parameters{}, &SchemaError{Violations: collectViolations(verr)}
		}
		return sampling.Parameters{}, fmt.Errorf("validate plan file: %w", err)
	}

	var params sampling.Parameters
	if err := yaml.Unmarshal(data, &params); err != nil {
		return sampling.Parameters{}, fmt.Errorf("decode plan file: %w", err)
	}
	return params, nil
}

// collectViolations flattens the leaves of a validation error tree.
func collectViolations(err *jsonschema.ValidationError) []Violation {
	if len(err.Causes) == 0 {
		path := strings.Join(err.InstanceLocation, ".")
		if path == "" {
			path = "(root)"
		}
		return []Violation{{Path: path, Message: err.Error()}}
	}

	var out []Violation
	for _, cause := range err.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}

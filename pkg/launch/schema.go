package launch

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tailscale/hujson"
)

const schemaResource = "launch.schema.json"

// GenerateSchema reflects the JSON Schema for launch.json from File.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Configurations carry debugger-specific attributes.
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		Anonymous:                  true,
		RequiredFromJSONSchemaTags: true,
	}

	schema := r.Reflect(&File{})
	schema.Title = "Launch Configuration"
	schema.Description = "Debug launch configurations for the current sketch."

	return json.MarshalIndent(schema, "", "  ")
}

// Validator validates launch files against the generated schema.
type Validator struct {
	schema *sjsonschema.Schema
}

// NewValidator compiles the generated schema.
func NewValidator() (*Validator, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	compiler := sjsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks raw launch.json bytes (comments allowed) against the schema.
func (v *Validator) Validate(data []byte) error {
	standard, err := hujson.Standardize(slices.Clone(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(standard, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*sjsonschema.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return fmt.Errorf("schema validation failed:\n%s", strings.Join(messages, "\n"))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *sjsonschema.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}

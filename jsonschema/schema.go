package jsonschema

// Draft is the dialect emitted by exporters.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Dialect string `json:"$schema,omitempty"`
	Ref     string `json:"$ref,omitempty"`
	Title   string `json:"title,omitempty"`
	Type    string `json:"type,omitempty"`
	Format  string `json:"format,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Default any    `json:"default,omitempty"`
	Const   any    `json:"const,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`

	// Definitions referenced through "#/$defs/<name>".
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// RefTo returns a reference to a named definition.
func RefTo(name string) *Schema { return &Schema{Ref: "#/$defs/" + name} }

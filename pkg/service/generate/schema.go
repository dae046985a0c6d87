package generate

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// outputSchema is the contract of one structured response. The same schema is
// sent to Gemini as ResponseSchema and used to validate what comes back.
type outputSchema struct {
	genai    *genai.Schema
	resolved *jsonschema.Resolved
}

func newOutputSchema[T any]() (*outputSchema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer schema")
	}
	allowAdditional(schema)

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve schema")
	}

	converted, err := toGenaiSchema(schema)
	if err != nil {
		return nil, err
	}

	return &outputSchema{genai: converted, resolved: resolved}, nil
}

func mustOutputSchema[T any]() *outputSchema {
	s, err := newOutputSchema[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// allowAdditional drops the "no additional properties" constraint that is
// inferred for structs. Models sometimes add fields; only missing or mistyped
// fields are rejected.
func allowAdditional(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil
	for _, p := range s.Properties {
		allowAdditional(p)
	}
	allowAdditional(s.Items)
}

// toGenaiSchema converts JSON Schema to Gemini genai.Schema
func toGenaiSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: schema.Description,
		Required:    schema.Required,
	}

	typ := schema.Type
	if typ == "" {
		// pointer types are inferred as ["null", T]
		for _, t := range schema.Types {
			if t != "null" {
				typ = t
				out.Nullable = genai.Ptr(true)
			}
		}
	}

	switch typ {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	default:
		if typ != "" {
			return nil, goerr.New("unsupported schema type", goerr.V("type", typ))
		}
	}

	for _, v := range schema.Enum {
		if s, ok := v.(string); ok {
			out.Enum = append(out.Enum, s)
		}
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := toGenaiSchema(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
	}

	if schema.Items != nil {
		converted, err := toGenaiSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = converted
	}

	return out, nil
}

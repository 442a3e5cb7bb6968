package google

// disallowedSchemaKeys are rejected by the responseJsonSchema dialect.
//
//nolint:gochecknoglobals // static table
var disallowedSchemaKeys = map[string]struct{}{
	"additionalProperties": {},
	"strict":               {},
	"$schema":              {},
}

// namedSchemaKeys hold maps from user-chosen names to subschemas. The names
// are never keywords.
//
//nolint:gochecknoglobals // static table
var namedSchemaKeys = map[string]struct{}{
	"properties":  {},
	"$defs":       {},
	"definitions": {},
}

// sanitizeSchema returns a deep copy of schema without disallowed keywords at
// any depth. Property names are kept even when they collide with a keyword.
func sanitizeSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}

	out := make(map[string]any, len(schema))
	for key, value := range schema {
		if _, drop := disallowedSchemaKeys[key]; drop {
			continue
		}
		if _, named := namedSchemaKeys[key]; named {
			out[key] = sanitizeNamed(value)
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeNamed(value any) any {
	named, ok := value.(map[string]any)
	if !ok {
		return sanitizeValue(value)
	}

	out := make(map[string]any, len(named))
	for name, sub := range named {
		out[name] = sanitizeValue(sub)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return sanitizeSchema(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

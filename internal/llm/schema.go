package llm

import "encoding/json"

// InlineRefs resolves every "#/$defs/Name" $ref in schema by replacing it
// with the referenced definition, recursively, and drops the top-level
// $defs map from the result. Several providers' tool-schema formats
// (Gemini, Bedrock) don't support $ref at all, so every adapter runs its
// tool schemas through this before handing them to the provider SDK.
//
// Grounded line-for-line on original_source's resolve_json_schema_refs.
func InlineRefs(schema json.RawMessage) (json.RawMessage, error) {
	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, err
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return schema, nil
	}

	defs, _ := m["$defs"].(map[string]any)
	resolved := resolveRefs(m, defs)

	if resolvedMap, ok := resolved.(map[string]any); ok {
		delete(resolvedMap, "$defs")
		resolved = resolvedMap
	}

	return json.Marshal(resolved)
}

func resolveRefs(obj any, defs map[string]any) any {
	switch v := obj.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok {
			if def, ok := lookupDef(ref, defs); ok {
				return resolveRefs(def, defs)
			}
			return v
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = resolveRefs(val, defs)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolveRefs(item, defs)
		}
		return out
	default:
		return obj
	}
}

const defsPrefix = "#/$defs/"

func lookupDef(ref string, defs map[string]any) (any, bool) {
	if len(ref) <= len(defsPrefix) || ref[:len(defsPrefix)] != defsPrefix {
		return nil, false
	}
	name := ref[len(defsPrefix):]
	def, ok := defs[name]
	return def, ok
}

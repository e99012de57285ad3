package llm

import (
	"encoding/json"
	"testing"
)

func TestInlineRefsResolvesSimpleRef(t *testing.T) {
	in := json.RawMessage(`{
		"type": "object",
		"properties": {"point": {"$ref": "#/$defs/Point"}},
		"$defs": {"Point": {"type": "object", "properties": {"x": {"type": "number"}}}}
	}`)

	out, err := InlineRefs(in)
	if err != nil {
		t.Fatalf("InlineRefs: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, hasDefs := doc["$defs"]; hasDefs {
		t.Error("expected $defs to be dropped from the resolved schema")
	}
	props, _ := doc["properties"].(map[string]any)
	point, _ := props["point"].(map[string]any)
	if point == nil {
		t.Fatal("expected properties.point to be present")
	}
	if _, hasRef := point["$ref"]; hasRef {
		t.Error("expected $ref to be replaced by the resolved definition")
	}
	pointProps, _ := point["properties"].(map[string]any)
	if pointProps == nil || pointProps["x"] == nil {
		t.Errorf("expected the Point definition's properties to be inlined, got %v", point)
	}
}

func TestInlineRefsResolvesNestedAndRepeatedRefs(t *testing.T) {
	in := json.RawMessage(`{
		"type": "array",
		"items": {"$ref": "#/$defs/Item"},
		"$defs": {"Item": {"type": "object", "properties": {"id": {"type": "string"}}}}
	}`)

	out, err := InlineRefs(in)
	if err != nil {
		t.Fatalf("InlineRefs: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	items, _ := doc["items"].(map[string]any)
	if items == nil || items["$ref"] != nil {
		t.Errorf("expected items.$ref to be resolved in place, got %v", items)
	}
}

func TestInlineRefsLeavesUnresolvableRefUntouched(t *testing.T) {
	in := json.RawMessage(`{"$ref": "#/$defs/Missing", "$defs": {}}`)

	out, err := InlineRefs(in)
	if err != nil {
		t.Fatalf("InlineRefs: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["$ref"] != "#/$defs/Missing" {
		t.Errorf("expected an unresolvable $ref to be left as-is, got %v", doc["$ref"])
	}
}

func TestInlineRefsPassesThroughNonObjectSchema(t *testing.T) {
	in := json.RawMessage(`true`)
	out, err := InlineRefs(in)
	if err != nil {
		t.Fatalf("InlineRefs: %v", err)
	}
	if string(out) != "true" {
		t.Errorf("out = %s, want true unchanged", out)
	}
}

func TestInlineRefsRejectsInvalidJSON(t *testing.T) {
	if _, err := InlineRefs(json.RawMessage(`{not json`)); err == nil {
		t.Error("expected an error for malformed input JSON")
	}
}

package llm

import "testing"

func TestExtractJSONParsesObject(t *testing.T) {
	fields, ok := ExtractJSON(`{"name": "Jamie", "zip": "59715"}`)
	if !ok {
		t.Fatal("expected JSON to be extracted")
	}
	if fields["name"] != "Jamie" || fields["zip"] != "59715" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestExtractJSONRejectsProsePrefix(t *testing.T) {
	if _, ok := ExtractJSON(`Here is your summary: {"name": "Jamie"}`); ok {
		t.Fatal("expected prose-prefixed reply to be rejected")
	}
	if _, ok := ExtractJSON("What city do you live in?"); ok {
		t.Fatal("expected plain prose to be rejected")
	}
	if _, ok := ExtractJSON(`{"broken": `); ok {
		t.Fatal("expected malformed JSON to be rejected")
	}
}

func TestExtractJSONToleratesTrailingText(t *testing.T) {
	fields, ok := ExtractJSON(`{"name": "Jamie"}
Let me know if anything is wrong!`)
	if !ok {
		t.Fatal("expected object followed by prose to parse")
	}
	if fields["name"] != "Jamie" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestExtractJSONFlattensNestedObjects(t *testing.T) {
	fields, ok := ExtractJSON(`{"address": {"city": "Bozeman", "state": "MT"}, "name": "Jamie"}`)
	if !ok {
		t.Fatal("expected JSON to be extracted")
	}
	if fields["address - city"] != "Bozeman" {
		t.Fatalf("expected flattened key, got %v", fields)
	}
	if fields["address - state"] != "MT" {
		t.Fatalf("expected flattened key, got %v", fields)
	}
	if fields["name"] != "Jamie" {
		t.Fatalf("expected top-level key preserved, got %v", fields)
	}
}

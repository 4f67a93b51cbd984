package json

import (
	"strings"
	"testing"
)

func TestPureJSON(t *testing.T) {
	obj, err := ExtractObject(`  {"title": "t", "next_action": "continue"}  `)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != `{"title": "t", "next_action": "continue"}` {
		t.Errorf("unexpected object: %s", obj)
	}
}

func TestJSONWithSurroundingText(t *testing.T) {
	obj, err := ExtractObject(`Let me think... {"title": "t", "content": "c"} Done!`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != `{"title": "t", "content": "c"}` {
		t.Errorf("unexpected object: %s", obj)
	}
}

func TestJSONInMarkdownFence(t *testing.T) {
	response := "```json\n{\"name\": \"fenced\", \"value\": 1}\n```"
	obj, err := ExtractObject(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != `{"name": "fenced", "value": 1}` {
		t.Errorf("unexpected object: %s", obj)
	}
}

func TestBracesInsideStrings(t *testing.T) {
	obj, err := ExtractObject(`Here: {"name": "a } b {", "value": 3} and a stray }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != `{"name": "a } b {", "value": 3}` {
		t.Errorf("expected object with braces in strings, got %s", obj)
	}
}

func TestFirstObjectWins(t *testing.T) {
	obj, err := ExtractObject(`{"name": "one"} {"name": "two"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != `{"name": "one"}` {
		t.Errorf("expected first object, got %s", obj)
	}
}

func TestSkipsInvalidPrefixObject(t *testing.T) {
	obj, err := ExtractObject(`{oops} then {"name": "ok"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != `{"name": "ok"}` {
		t.Errorf("unexpected object: %s", obj)
	}
}

func TestNoJSON(t *testing.T) {
	_, err := ExtractObject("This is just plain text without any JSON.")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to extract valid JSON") {
		t.Errorf("expected 'failed to extract valid JSON' in error, got: %v", err)
	}
}

func TestInvalidJSON(t *testing.T) {
	if _, err := ExtractObject(`{"name": "test", value: }`); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestErrorPreviewKeepsRunesWhole(t *testing.T) {
	_, err := ExtractObject(strings.Repeat("é", 150))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), strings.Repeat("é", 100)+"...") {
		t.Errorf("expected a 100-rune preview, got: %v", err)
	}
}

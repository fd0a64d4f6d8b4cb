package llm

import (
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"queries": [{"table": "general_ledger"}]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_PlainArray(t *testing.T) {
	input := `[{"table": "payments"}, {"table": "ap_aging"}]`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := `<think>
The user wants revenue, so I should query the ledger.
</think>
{"queries": []}`

	expected := `{"queries": []}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_WithMarkdownFence(t *testing.T) {
	input := "```json\n{\"queries\": [{\"alias\": \"q1\"}]}\n```"
	expected := `{"queries": [{"alias": "q1"}]}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_WithSurroundingProse(t *testing.T) {
	input := `Here is the plan you asked for: {"queries": []} Let me know if you need more.`
	expected := `{"queries": []}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	input := `{"filters": "amount > {threshold}", "memo": "a \"quoted\" value"}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, err := ExtractJSON("I could not produce a plan for that question."); err == nil {
		t.Error("expected error for response without JSON")
	}
}

func TestExtractJSON_UnbalancedBraces(t *testing.T) {
	if _, err := ExtractJSON(`{"queries": [`); err == nil {
		t.Error("expected error for unbalanced JSON")
	}
}

func TestParseJSONResponse(t *testing.T) {
	type plan struct {
		Queries []struct {
			Table string `json:"table"`
		} `json:"queries"`
	}

	result, err := ParseJSONResponse[plan](`noise {"queries": [{"table": "payments"}]} noise`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Queries) != 1 || result.Queries[0].Table != "payments" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type plan struct {
		Queries []string `json:"queries"`
	}
	if _, err := ParseJSONResponse[plan](`{"queries": [{"table": "payments"}]}`); err == nil {
		t.Error("expected unmarshal error for mismatched shape")
	}
}

package prompts

import (
	"strings"
	"testing"
)

func TestBuildPlanPrompt(t *testing.T) {
	prompt := BuildPlanPrompt("how much do we owe vendors?", "Available tables:\n- ap_aging (Ap Aging): vendor, open_balance\n")

	if !strings.Contains(prompt, "how much do we owe vendors?") {
		t.Error("prompt should end with the question")
	}
	if !strings.Contains(prompt, "ap_aging") {
		t.Error("prompt should include the schema block")
	}
	for _, typ := range []string{`"sum"`, `"count"`, `"list"`} {
		if !strings.Contains(prompt, typ) {
			t.Errorf("prompt should document the %s aggregation type", typ)
		}
	}
	if !strings.Contains(prompt, `"groupBy": ["vendor", "month"]`) {
		t.Error("prompt should include a multi-key groupBy example")
	}
}

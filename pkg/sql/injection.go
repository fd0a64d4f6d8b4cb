package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a SQL injection pattern detected in
// oracle-supplied plan text.
type InjectionCheckResult struct {
	IsSQLi      bool
	Fingerprint string
	Field       string
	Value       string
}

// CheckPlanTextForInjection screens a free-text plan field (table name,
// filter description) for SQL injection patterns. Plan text comes from the
// oracle, which echoes user input, so it is treated as untrusted even
// though the executor never interpolates it into a statement directly.
//
// Returns nil if no injection pattern is detected.
func CheckPlanTextForInjection(field, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Field:       field,
		Value:       value,
	}
}

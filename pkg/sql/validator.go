// Package sql guards the statements the engine sends to the financial
// database. The engine constructs every statement itself from a whitelist
// of tables and fixed predicate clauses, so these checks are a backstop,
// not the primary defense.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleStatements indicates the statement contains more than one
	// SQL statement.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed")

	// ErrNotReadOnly indicates the statement is not a plain SELECT.
	ErrNotReadOnly = errors.New("only SELECT statements are permitted")
)

// ValidateReadOnly checks that a statement is a single read-only SELECT.
// The trailing semicolon is stripped before checking; any remaining
// semicolon outside string literals means multiple statements.
func ValidateReadOnly(statement string) error {
	trimmed := strings.TrimSpace(statement)
	if trimmed == "" {
		return ErrNotReadOnly
	}

	normalized := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))

	if hasSemicolonOutsideStrings(normalized) {
		return ErrMultipleStatements
	}

	if !strings.HasPrefix(strings.ToUpper(normalized), "SELECT") {
		return ErrNotReadOnly
	}
	return nil
}

// hasSemicolonOutsideStrings reports whether the statement contains a
// semicolon outside of single- or double-quoted literals.
func hasSemicolonOutsideStrings(statement string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	for i := 0; i < len(statement); i++ {
		c := statement[i]
		switch state {
		case stateNormal:
			switch c {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if c == '\'' {
				// '' is an escaped quote inside the literal
				if i+1 < len(statement) && statement[i+1] == '\'' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			if c == '"' {
				state = stateNormal
			}
		}
	}
	return false
}

package sql

import (
	"errors"
	"testing"
)

func TestValidateReadOnly_AcceptsSelect(t *testing.T) {
	cases := []string{
		"SELECT * FROM general_ledger",
		"select * from payments where total_amount > $1",
		"  SELECT 1  ",
		"SELECT * FROM ap_aging;",
		"SELECT 'a;b' FROM payments",
		`SELECT "col;umn" FROM payments`,
		"SELECT 'it''s; fine' FROM payments",
	}
	for _, stmt := range cases {
		if err := ValidateReadOnly(stmt); err != nil {
			t.Errorf("expected %q to pass, got %v", stmt, err)
		}
	}
}

func TestValidateReadOnly_RejectsNonSelect(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"DELETE FROM general_ledger",
		"UPDATE payments SET total_amount = 0",
		"DROP TABLE ar_aging_detail",
		"WITH x AS (SELECT 1) SELECT * FROM x", // CTEs are not plain SELECTs
	}
	for _, stmt := range cases {
		if err := ValidateReadOnly(stmt); !errors.Is(err, ErrNotReadOnly) {
			t.Errorf("expected ErrNotReadOnly for %q, got %v", stmt, err)
		}
	}
}

func TestValidateReadOnly_RejectsMultipleStatements(t *testing.T) {
	cases := []string{
		"SELECT 1; DELETE FROM payments",
		"SELECT 1; SELECT 2",
		"SELECT 1;;",
	}
	for _, stmt := range cases {
		if err := ValidateReadOnly(stmt); !errors.Is(err, ErrMultipleStatements) {
			t.Errorf("expected ErrMultipleStatements for %q, got %v", stmt, err)
		}
	}
}

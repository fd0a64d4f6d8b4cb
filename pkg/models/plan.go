package models

import (
	"encoding/json"
	"fmt"

	"github.com/finlens/finlens-engine/pkg/jsonutil"
)

// AggregationType identifies how a plan entry's rows are reduced.
type AggregationType string

const (
	AggregationSum   AggregationType = "sum"
	AggregationCount AggregationType = "count"
	AggregationList  AggregationType = "list"
)

// Valid reports whether the aggregation type is one of the supported values.
func (t AggregationType) Valid() bool {
	switch t {
	case AggregationSum, AggregationCount, AggregationList:
		return true
	}
	return false
}

// MonthKey is the reserved group key that buckets rows by calendar month
// of the table's date column instead of a raw column value.
const MonthKey = "month"

// GroupKey is a single grouping dimension: either a column name or the
// reserved month bucket.
type GroupKey struct {
	Column string
	Month  bool
}

// Name returns the key's field name as it appears in emitted result rows.
func (k GroupKey) Name() string {
	if k.Month {
		return MonthKey
	}
	return k.Column
}

// GroupBy describes how a sum entry partitions its rows. The planner's
// oracle may emit it as null, a single string ("month" or a column name),
// or an array of either, so it decodes all three shapes uniformly.
type GroupBy struct {
	keys []GroupKey
}

// GroupByNone returns an ungrouped GroupBy.
func GroupByNone() GroupBy { return GroupBy{} }

// GroupBySingle groups by one column.
func GroupBySingle(column string) GroupBy {
	return GroupBy{keys: []GroupKey{{Column: column}}}
}

// GroupByMonth groups by calendar month of the date column.
func GroupByMonth() GroupBy {
	return GroupBy{keys: []GroupKey{{Month: true}}}
}

// GroupByMulti groups by several keys in order.
func GroupByMulti(keys ...GroupKey) GroupBy {
	return GroupBy{keys: keys}
}

// None reports whether no grouping applies.
func (g GroupBy) None() bool { return len(g.keys) == 0 }

// Keys returns the ordered grouping keys.
func (g GroupBy) Keys() []GroupKey { return g.keys }

// HasMonth reports whether any key is the month bucket. Month-keyed results
// are sorted chronologically rather than by total.
func (g GroupBy) HasMonth() bool {
	for _, k := range g.keys {
		if k.Month {
			return true
		}
	}
	return false
}

func groupKeyFromString(s string) GroupKey {
	if s == MonthKey {
		return GroupKey{Month: true}
	}
	return GroupKey{Column: s}
}

// UnmarshalJSON accepts null, "", a column name, "month", or an array of
// column names / "month".
func (g *GroupBy) UnmarshalJSON(data []byte) error {
	g.keys = nil

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" && single != "none" && single != "null" {
			g.keys = []GroupKey{groupKeyFromString(single)}
		}
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err == nil {
		for _, s := range multi {
			if s == "" {
				continue
			}
			g.keys = append(g.keys, groupKeyFromString(s))
		}
		return nil
	}

	if string(data) == "null" {
		return nil
	}
	return fmt.Errorf("groupBy must be a string or array of strings, got %s", data)
}

// MarshalJSON emits null, a single string, or an array, mirroring the
// accepted input shapes.
func (g GroupBy) MarshalJSON() ([]byte, error) {
	switch len(g.keys) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(g.keys[0].Name())
	default:
		names := make([]string, len(g.keys))
		for i, k := range g.keys {
			names[i] = k.Name()
		}
		return json.Marshal(names)
	}
}

// QueryPlanEntry is one bounded query the planner asks the executor to run.
type QueryPlanEntry struct {
	Table   string          `json:"table"`
	Type    AggregationType `json:"type"`
	Filters string          `json:"filters"`
	GroupBy GroupBy         `json:"groupBy"`
	Alias   string          `json:"alias"`
}

// UnmarshalJSON decodes an entry tolerantly: oracles occasionally emit
// numbers or booleans where strings are expected, so scalar string fields
// go through jsonutil.FlexibleStringValue.
func (e *QueryPlanEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Table   json.RawMessage `json:"table"`
		Type    json.RawMessage `json:"type"`
		Filters json.RawMessage `json:"filters"`
		GroupBy GroupBy         `json:"groupBy"`
		Alias   json.RawMessage `json:"alias"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Table = jsonutil.FlexibleStringValue(raw.Table)
	e.Type = AggregationType(jsonutil.FlexibleStringValue(raw.Type))
	e.Filters = jsonutil.FlexibleStringValue(raw.Filters)
	e.GroupBy = raw.GroupBy
	e.Alias = jsonutil.FlexibleStringValue(raw.Alias)
	return nil
}

// QueryPlan is the ordered sequence of entries produced by the planner.
type QueryPlan struct {
	Entries []QueryPlanEntry `json:"queries"`
}

// Normalize drops invalid entries and enforces alias uniqueness.
// An entry with an unknown aggregation type is skipped rather than failing
// the whole plan. Missing aliases are assigned positionally; duplicate
// aliases get a numeric suffix so later entries never overwrite earlier
// results in the data map.
func (p QueryPlan) Normalize() QueryPlan {
	seen := make(map[string]int)
	out := QueryPlan{}
	for i, entry := range p.Entries {
		if !entry.Type.Valid() || entry.Table == "" {
			continue
		}
		if entry.Alias == "" {
			entry.Alias = fmt.Sprintf("q%d", i+1)
		}
		if n, dup := seen[entry.Alias]; dup {
			seen[entry.Alias] = n + 1
			entry.Alias = fmt.Sprintf("%s_%d", entry.Alias, n+1)
		}
		seen[entry.Alias] = 1
		out.Entries = append(out.Entries, entry)
	}
	return out
}

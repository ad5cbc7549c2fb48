package achievement

import "progressionkit/core"

// Op selects how a condition compares a payload field to its target value.
type Op string

const (
	OpEquals  Op = "equals"
	OpAtLeast Op = "at_least"
	OpAtMost  Op = "at_most"
)

// Condition is one requirement over a named payload field. An achievement
// unlocks only when every one of its conditions passes.
type Condition struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

func Equals(field string, value any) Condition {
	return Condition{Field: field, Op: OpEquals, Value: value}
}

func AtLeast(field string, value float64) Condition {
	return Condition{Field: field, Op: OpAtLeast, Value: value}
}

func AtMost(field string, value float64) Condition {
	return Condition{Field: field, Op: OpAtMost, Value: value}
}

// Eval checks the condition against caller-supplied data. Missing fields
// evaluate against zero values (0, "", false) so incomplete payloads never
// spuriously unlock threshold achievements.
func (c Condition) Eval(data core.Payload) bool {
	switch c.Op {
	case OpAtLeast:
		have, _ := data.Number(c.Field)
		return have >= asNumber(c.Value)
	case OpAtMost:
		have, _ := data.Number(c.Field)
		return have <= asNumber(c.Value)
	case OpEquals:
		return equals(c.Value, data, c.Field)
	}
	return false
}

func equals(want any, data core.Payload, field string) bool {
	switch w := want.(type) {
	case string:
		have, _ := data.String(field)
		return have == w
	case bool:
		have, _ := data.Bool(field)
		return have == w
	default:
		have, _ := data.Number(field)
		return have == asNumber(want)
	}
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case float32:
		return float64(n)
	}
	return 0
}

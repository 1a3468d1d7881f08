package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrNotObject = errors.New("student payload must be a JSON object")

// StudentInput is a create/update payload after coercion. Decoding never
// rejects bad field values: missing or non-string name/roll become "", and
// marks that are missing, null or non-numeric become 0.
type StudentInput struct {
	Name  string
	Roll  string
	Marks Marks
}

func (in *StudentInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrNotObject
	}
	if raw == nil {
		return ErrNotObject
	}

	in.Name = coerceString(raw["name"])
	in.Roll = coerceString(raw["roll"])
	in.Marks = coerceMarks(raw["marks"])
	return nil
}

func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// coerceMarks accepts either a positional list or a subject -> score object.
// Unknown subject keys are ignored.
func coerceMarks(raw json.RawMessage) Marks {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && list != nil {
		scores := make([]int, len(list))
		for i, v := range list {
			scores[i] = CoerceScore(v)
		}
		return MarksFromList(scores)
	}

	byName := map[string]json.RawMessage{}
	_ = json.Unmarshal(raw, &byName)

	m := make(Marks, len(Subjects))
	for _, subject := range Subjects {
		m[subject] = CoerceScore(byName[subject])
	}
	return m
}

// CoerceScore turns one JSON value into a score: numbers are truncated
// toward zero, numeric strings are parsed, booleans count as 1 or 0 and
// everything else is 0.
func CoerceScore(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0
	}

	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return clampScore(float64(n))
		}
		if f, err := val.Float64(); err == nil {
			return clampScore(math.Trunc(f))
		}
	case string:
		return ParseScore(val)
	case bool:
		if val {
			return 1
		}
	}
	return 0
}

// ParseScore parses a textual integer score, 0 when it is not one.
func ParseScore(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return clampScore(float64(n))
}

func clampScore(f float64) int {
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

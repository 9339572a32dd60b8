package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// UserProfile is the onboarding profile submitted for plan generation.
// Every field is optional; the plan pipeline substitutes defaults.
type UserProfile struct {
	Name     string   `json:"name,omitempty"`
	Age      Quantity `json:"age"`
	Weight   Quantity `json:"weight"`
	Height   Quantity `json:"height"`
	Goals    []string `json:"goals,omitempty"`
	Duration Quantity `json:"duration"`
	Injuries string   `json:"injuries,omitempty"`
}

// Quantity is an optional number. The onboarding form stores some numbers
// as strings, so numeric strings are accepted too. Empty or non-numeric
// strings decode as absent.
type Quantity struct {
	Value float64
	Valid bool
}

// Q returns a present Quantity.
func Q(v float64) Quantity {
	return Quantity{Value: v, Valid: true}
}

// Or returns the value, or def when absent.
func (q Quantity) Or(def float64) float64 {
	if !q.Valid {
		return def
	}
	return q.Value
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*q = Quantity{}
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*q = Quantity{}
			return nil
		}
		*q = Q(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*q = Q(v)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(q.Value)
}

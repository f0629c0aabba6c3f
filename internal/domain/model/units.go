package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Units is a profit figure that the source data writes either as a number
// or as a signed string such as "+5.2".
type Units float64

// ParseUnits parses "+5.2", "-3", "4.1u" style values. Empty input is zero.
func ParseUnits(s string) (Units, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "units"), "u")
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse units %q: %w", s, err)
	}
	return Units(f), nil
}

// UnmarshalJSON accepts a number, a string or null.
func (u *Units) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*u = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseUnits(s)
		if err != nil {
			return err
		}
		*u = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse units: %w", err)
	}
	*u = Units(f)
	return nil
}

// UnmarshalYAML accepts a scalar number or string.
func (u *Units) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("parse units: expected scalar at line %d", node.Line)
	}
	v, err := ParseUnits(node.Value)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Float64 returns the numeric value.
func (u Units) Float64() float64 { return float64(u) }

// Package sweep evaluates the ambiguity analysis over a grid of distance
// thresholds and index gaps, to help choose settings for a ribbon.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxValues bounds generated ranges and combination counts.
const maxValues = 10000

// RangeSpec defines a floating-point parameter range for sweeping.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// IntRangeSpec defines an integer parameter range for sweeping.
type IntRangeSpec struct {
	Min  int
	Max  int
	Step int
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]float64
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// ParseIntRangeSpec parses a "min:max:step" string into an IntRangeSpec.
func ParseIntRangeSpec(s string) (IntRangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return IntRangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]int
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return IntRangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 {
		return IntRangeSpec{}, fmt.Errorf("step must be positive, got %d", vals[2])
	}
	return IntRangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// GenerateRange returns min, min+step, ... up to max inclusive, rounded to
// millimetres. Returns nil for an empty or oversized range.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	expectedCount := int((max-min)/step) + 1
	if expectedCount > maxValues || expectedCount < 0 {
		return nil
	}

	var result []float64
	for v := min; v <= max+step/1000; v += step {
		if len(result) >= maxValues {
			break
		}
		// Round to avoid floating point accumulation errors
		rounded := math.Round(v*1000) / 1000
		if rounded <= max {
			result = append(result, rounded)
		}
	}
	return result
}

// GenerateIntRange returns min, min+step, ... up to max inclusive.
// Returns nil for an empty or oversized range.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	expectedCount := (max-min)/step + 1
	if expectedCount > maxValues || expectedCount < 0 {
		return nil
	}

	var result []int
	for v := min; v <= max; v += step {
		result = append(result, v)
	}
	return result
}

// ParseParamList parses either a "min:max:step" range or a comma-separated
// list of floats.
func ParseParamList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVFloat64s(s)
}

// ParseIntParamList parses either a "min:max:step" range or a
// comma-separated list of integers.
func ParseIntParamList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseIntRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateIntRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVInts(s)
}

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseCSVInts parses a comma-separated list of int values.
// Returns nil, nil for empty input strings.
func ParseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knetic/govaluate"
)

// ParseFactor evaluates a scale factor such as "2", "-0.5" or "1/3".
func ParseFactor(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty factor")
	}
	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return f, nil
	}

	expression, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid factor %q: %w", expr, err)
	}
	if vars := expression.Vars(); len(vars) > 0 {
		return 0, fmt.Errorf("invalid factor %q: unknown name %q", expr, vars[0])
	}
	result, err := expression.Evaluate(nil)
	if err != nil {
		return 0, fmt.Errorf("invalid factor %q: %w", expr, err)
	}
	f, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid factor %q: not a number", expr)
	}
	return f, nil
}

// ParseSize parses "WxH" into its two dimensions.
func ParseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	if width, err = strconv.Atoi(strings.TrimSpace(ws)); err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	if height, err = strconv.Atoi(strings.TrimSpace(hs)); err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	return width, height, nil
}

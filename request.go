package isostream

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"github.com/isostream/isostream-go/frame"
)

// Parameter names that trigger time-range chunking when both are declared
// date-time and supplied.
const (
	startParam = "start"
	endParam   = "end"
)

// timeSpan is a closed-open [start, end) interval taken from the built
// parameters.
type timeSpan struct {
	start, end time.Time
}

// buildParams validates caller arguments against the declared parameter set
// and produces the query values to send. Required parameters must be
// present; optional absent parameters are omitted; date-time values are
// coerced to the fixed textual layout. Arguments outside the declared set
// are rejected, naming the offending keys.
func buildParams(op Operation, args Args) (map[string]string, *timeSpan, error) {
	params := make(map[string]string, len(op.Parameters))
	seen := make(map[string]struct{}, len(op.Parameters))
	times := make(map[string]time.Time, 2)

	for _, p := range op.Parameters {
		seen[p.Name] = struct{}{}
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, nil, &MissingArgumentError{Method: op.Name, Name: p.Name}
			}
			continue
		}
		if p.IsDateTime() {
			ts, err := coerceTime(v)
			if err != nil {
				return nil, nil, fmt.Errorf("isostream: %s argument %q: %w", op.Name, p.Name, err)
			}
			params[p.Name] = ts.Format(frame.TimeLayout)
			times[p.Name] = ts
			continue
		}
		params[p.Name] = stringifyArg(v)
	}

	var unexpected []string
	for name := range args {
		if _, declared := seen[name]; !declared {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, nil, &UnexpectedArgumentError{Method: op.Name, Names: unexpected}
	}

	var span *timeSpan
	if start, ok := times[startParam]; ok {
		if end, ok := times[endParam]; ok {
			span = &timeSpan{start: start, end: end}
		}
	}
	return params, span, nil
}

// coerceTime accepts a structured timestamp or free-form date text.
func coerceTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, fmt.Errorf("nil timestamp")
		}
		return *x, nil
	case string:
		ts, err := dateparse.ParseAny(x)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q as date-time: %w", x, err)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("cannot use %T as date-time", v)
	}
}

func stringifyArg(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

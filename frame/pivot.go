package frame

import (
	"math"
	"sort"
	"time"
)

// Pivot reshapes the table using its first Time column as the row index and
// its first String column as the new column axis. With both present, every
// remaining column contributes one output column per distinct label; with
// only a String column present, that column simply becomes the index; with
// neither, the table is returned unchanged. Cells absent from the input are
// NaN in Float64 columns and nil otherwise.
func (t *Table) Pivot() *Table {
	var timeCol, labelCol *Series
	for _, c := range t.cols {
		if timeCol == nil && c.Type == Time {
			timeCol = c
		}
		if labelCol == nil && c.Type == String {
			labelCol = c
		}
	}

	if timeCol == nil {
		if labelCol != nil {
			_ = t.SetIndex(labelCol.Name)
		}
		return t
	}
	if labelCol == nil {
		return t
	}

	// Distinct sorted index values and labels.
	times := distinctTimes(timeCol)
	labels := distinctStrings(labelCol)
	rowOf := make(map[time.Time]int, len(times))
	for i, ts := range times {
		rowOf[ts] = i
	}

	out := &Table{nrows: len(times)}
	idx := &Series{Name: timeCol.Name, Type: Time, vals: make([]any, len(times))}
	for i, ts := range times {
		idx.vals[i] = ts
	}
	out.index = idx

	// Column names carry the value-column prefix only when more than one
	// value column remains after removing the index and label columns.
	multi := len(t.cols)-2 > 1
	for _, value := range t.cols {
		if value == timeCol || value == labelCol {
			continue
		}
		for _, label := range labels {
			name := label
			if multi {
				name = value.Name + " " + label
			}
			s := &Series{Name: name, Type: value.Type, vals: emptyCells(value.Type, len(times))}
			out.cols = append(out.cols, s)
		}
	}

	// Fill: later duplicates of an (index, label) pair win.
	for i := 0; i < t.nrows; i++ {
		ts, ok := timeCol.Value(i).(time.Time)
		if !ok {
			continue
		}
		label, ok := labelCol.Value(i).(string)
		if !ok {
			continue
		}
		row := rowOf[ts]
		for _, value := range t.cols {
			if value == timeCol || value == labelCol {
				continue
			}
			name := label
			if multi {
				name = value.Name + " " + label
			}
			if s, found := out.Column(name); found {
				s.vals[row] = value.Value(i)
			}
		}
	}
	return out
}

func distinctTimes(s *Series) []time.Time {
	seen := map[time.Time]struct{}{}
	var out []time.Time
	for _, v := range s.vals {
		ts, ok := v.(time.Time)
		if !ok {
			continue
		}
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func distinctStrings(s *Series) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range s.vals {
		label, ok := v.(string)
		if !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func emptyCells(t Type, n int) []any {
	vals := make([]any, n)
	if t == Float64 {
		for i := range vals {
			vals[i] = math.NaN()
		}
	}
	return vals
}

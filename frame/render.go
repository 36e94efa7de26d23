package frame

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Render writes the table as aligned text, index column first when set.
func (t *Table) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	header := make([]string, 0, len(t.cols)+1)
	if t.index != nil {
		header = append(header, t.index.Name)
	}
	header = append(header, t.Columns()...)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)

	for i := 0; i < t.nrows; i++ {
		row := make([]string, 0, len(header))
		if t.index != nil {
			row = append(row, formatCell(t.index.Value(i)))
		}
		for _, c := range t.cols {
			row = append(row, formatCell(c.Value(i)))
		}
		tw.Append(row)
	}
	tw.Render()
}

func (t *Table) String() string {
	var b strings.Builder
	t.Render(&b)
	return b.String()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.Format(TimeLayout)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

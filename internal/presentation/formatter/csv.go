package formatter

import (
	"encoding/csv"
	"io"

	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes plain amounts without currency symbols so the output
// re-imports as an export.
func (f *CSVFormatter) Format(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	if r.Grouped() {
		if err := cw.Write([]string{r.GroupLabel, "cost_usd"}); err != nil {
			return err
		}
		for _, g := range r.Groups {
			if err := cw.Write([]string{g.Key, util.FormatAmount(g.Cost)}); err != nil {
				return err
			}
		}
	} else {
		cols := r.Capabilities.Columns()
		header := make([]string, 0, len(cols)+1)
		for _, d := range cols {
			header = append(header, string(d))
		}
		if err := cw.Write(append(header, "cost_usd")); err != nil {
			return err
		}
		for _, rec := range r.Records {
			if err := cw.Write(append(recordRow(rec, cols), rec.CostUSD.String())); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

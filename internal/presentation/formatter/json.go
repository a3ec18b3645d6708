package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonReport struct {
	Query   string              `json:"query"`
	Summary model.Summary       `json:"summary"`
	Total   int                 `json:"total"`
	HasMore bool                `json:"has_more"`
	Records *[]model.CostRecord `json:"records,omitempty"`
	Groups  []model.GroupRow    `json:"groups,omitempty"`
	GroupBy string              `json:"group_by,omitempty"`
}

func (f *JSONFormatter) Format(w io.Writer, r *Report) error {
	out := jsonReport{
		Query:   r.Query,
		Summary: r.Summary,
		Total:   r.Total,
		HasMore: r.HasMore,
	}
	if r.Grouped() {
		out.Groups = r.Groups
		out.GroupBy = r.GroupLabel
	} else {
		records := r.Records
		if records == nil {
			records = []model.CostRecord{}
		}
		out.Records = &records
	}

	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

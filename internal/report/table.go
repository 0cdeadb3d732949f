package report

import (
	"fmt"
	"io"

	"github.com/gantry-ci/gantry/internal/engine"
	"github.com/gantry-ci/gantry/internal/styles"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/olekukonko/tablewriter"
)

type table struct {
	w io.Writer
}

func Table(w io.Writer) Reporter {
	return &table{w: w}
}

func (r *table) Write(result *engine.Result) error {
	t := tablewriter.NewWriter(r.w)
	t.SetHeader([]string{"#", "Job", "Variant", "Step", "Status", "Duration", "Error"})
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetCenterSeparator("")
	t.SetHeaderLine(false)
	t.SetReflowDuringAutoWrap(false)

	for i, row := range rows(result) {
		t.Append([]string{
			fmt.Sprintf("%d", i),
			row.Job,
			row.Variant,
			row.Step,
			render(row.Status),
			row.Duration,
			row.Error,
		})
	}

	t.Render()

	fmt.Fprintf(r.w, "\n%s %s\n", styles.Bold.Render("pipeline:"), render(result.Status))
	return nil
}

func render(status v1beta1.Status) string {
	switch status {
	case v1beta1.StatusSuccess:
		return styles.Success.Render(string(status))
	case v1beta1.StatusFailure:
		return styles.Failure.Render(string(status))
	case v1beta1.StatusCancelled:
		return styles.Warning.Render(string(status))
	default:
		return styles.Skipped.Render(string(status))
	}
}

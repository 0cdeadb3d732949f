package report

import (
	"fmt"
	"io"

	"github.com/gantry-ci/gantry/internal/engine"
)

type markdown struct {
	w io.Writer
}

func Markdown(w io.Writer) Reporter {
	return &markdown{w: w}
}

func (r *markdown) Write(result *engine.Result) error {
	fmt.Fprintln(r.w, "| # | Job | Variant | Step | Status | Duration | Error |")
	fmt.Fprintln(r.w, "| --- | --- | --- | --- | --- | --- | --- |")

	for i, row := range rows(result) {
		fmt.Fprintf(r.w, "| %d | %s | %s | %s | %s | %s | %s |\n",
			i,
			row.Job,
			row.Variant,
			row.Step,
			row.Status,
			row.Duration,
			row.Error,
		)
	}

	fmt.Fprintf(r.w, "\n**%s**\n", result.Status)
	return nil
}

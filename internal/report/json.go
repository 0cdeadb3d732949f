package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gantry-ci/gantry/internal/engine"
)

type jsonReport struct {
	w io.Writer
}

func JSON(w io.Writer) Reporter {
	return &jsonReport{w: w}
}

func (r *jsonReport) Write(result *engine.Result) error {
	b, err := json.MarshalIndent(struct {
		Pipeline string `json:"pipeline,omitempty"`
		Status   string `json:"status"`
		Steps    []row  `json:"steps"`
	}{
		Pipeline: result.Pipeline,
		Status:   string(result.Status),
		Steps:    rows(result),
	}, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(r.w, "%s\n", b)
	return err
}

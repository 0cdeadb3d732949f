package report

import (
	"strings"
	"time"

	"github.com/gantry-ci/gantry/internal/engine"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
)

// Reporter renders a finalized pipeline result.
type Reporter interface {
	Write(result *engine.Result) error
}

type row struct {
	Job      string         `json:"job"`
	Variant  string         `json:"variant"`
	Step     string         `json:"step"`
	Status   v1beta1.Status `json:"status"`
	Duration string         `json:"duration"`
	Error    string         `json:"error,omitempty"`
}

// rows flattens a pipeline result into one line per executed step, in job
// and variant order, followed by the post actions.
func rows(result *engine.Result) []row {
	var out []row

	for _, job := range result.Jobs {
		if job.Result == nil {
			out = append(out, row{
				Job:    job.Job,
				Status: job.Phase.Status(),
				Error:  errString(job.Err),
			})

			continue
		}

		for _, variant := range job.Result.Variants {
			if variant == nil {
				continue
			}

			for _, step := range variant.Steps {
				out = append(out, row{
					Job:      job.Job,
					Variant:  variant.Variant,
					Step:     step.ID,
					Status:   step.Status,
					Duration: duration(step.StartedAt, step.EndedAt),
					Error:    errString(step.Err),
				})
			}
		}
	}

	for _, post := range result.Post {
		out = append(out, row{
			Job:    "post",
			Step:   post.Name,
			Status: post.Status,
			Error:  errString(post.Err),
		})
	}

	return out
}

func duration(start, end time.Time) string {
	if start.IsZero() {
		return ""
	}

	return end.Sub(start).Round(10 * time.Millisecond).String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return strings.ReplaceAll(err.Error(), "\n", " ")
}

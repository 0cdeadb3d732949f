package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alitto/pond/v2"
	"github.com/gantry-ci/gantry/internal/action"
	"github.com/gantry-ci/gantry/internal/artifact"
	"github.com/gantry-ci/gantry/internal/condition"
	"github.com/gantry-ci/gantry/internal/engine"
	"github.com/gantry-ci/gantry/internal/mask"
	"github.com/gantry-ci/gantry/internal/otelsetup"
	"github.com/gantry-ci/gantry/internal/provider"
	"github.com/gantry-ci/gantry/internal/report"
	"github.com/gantry-ci/gantry/internal/runtime"
	"github.com/gantry-ci/gantry/internal/scheduler"
	"github.com/gantry-ci/gantry/internal/secrets"
	"github.com/gantry-ci/gantry/internal/sequencer"
	"github.com/gantry-ci/gantry/pkg/apis/core/v1beta1"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:  "run",
	RunE: runRun,
}

type runFlags struct {
	file            string   `env:"FILE"`
	event           string   `env:"EVENT"`
	ref             string   `env:"REF"`
	sha             string   `env:"SHA"`
	repository      string   `env:"REPOSITORY"`
	report          string   `env:"REPORT"`
	reportOutput    string   `env:"REPORT_OUTPUT"`
	artifactDir     string   `env:"ARTIFACT_DIR"`
	secretEnvPrefix string   `env:"SECRET_ENV_PREFIX"`
	secrets         []string `env:"SECRETS"`
	envs            []string `env:"ENVS"`
	maxConcurrent   int      `env:"MAX_CONCURRENT"`
	shell           string   `env:"SHELL"`
	runnerLabels    []string `env:"RUNNER_LABELS"`
	otelOptions     *otelsetup.Options
}

var runArgs = newRunFlags()

func newRunFlags() runFlags {
	return runFlags{
		otelOptions: otelsetup.DefaultOptions("github.com/gantry-ci/gantry"),
	}
}

const otelName = "github.com/gantry-ci/gantry"

func init() {
	runCmd.Flags().StringVarP(&runArgs.file, "file", "f", "gantry.yaml", "Path to the pipeline document, `-` reads from stdin.")
	runCmd.Flags().StringVarP(&runArgs.event, "event", "", "manual", "Trigger event kind. One of [push, pull_request, manual].")
	runCmd.Flags().StringVarP(&runArgs.ref, "ref", "", "", "Trigger ref, e.g. refs/heads/master.")
	runCmd.Flags().StringVarP(&runArgs.sha, "sha", "", "", "Trigger commit sha.")
	runCmd.Flags().StringVarP(&runArgs.repository, "repository", "", "", "Repository in owner/name notation.")
	runCmd.Flags().StringVarP(&runArgs.report, "report", "r", "none", "Report summary at the end of execution. One of [none, table, json, markdown].")
	runCmd.Flags().StringVarP(&runArgs.reportOutput, "report-output", "", "-", "Destination for the report output, `-` writes to stdout.")
	runCmd.Flags().StringVarP(&runArgs.artifactDir, "artifact-dir", "", ".gantry/artifacts", "Destination root for uploaded artifacts.")
	runCmd.Flags().StringVarP(&runArgs.secretEnvPrefix, "secret-env-prefix", "", "GANTRY_SECRET_", "Resolve secrets from prefixed environment variables.")
	runCmd.Flags().StringSliceVarP(&runArgs.secrets, "secret", "s", nil, "Pass secrets to the pipeline as key=value.")
	runCmd.Flags().StringSliceVarP(&runArgs.envs, "env", "e", nil, "Pass envs to the pipeline as key=value.")
	runCmd.Flags().IntVarP(&runArgs.maxConcurrent, "max-concurrent", "", 0, "Upper bound for concurrent job variants across all jobs. 0 means unbounded.")
	runCmd.Flags().StringVarP(&runArgs.shell, "shell", "", "/bin/sh", "Shell used to execute inline run scripts.")
	runCmd.Flags().StringSliceVarP(&runArgs.runnerLabels, "runner-label", "", nil, "Additional runsOn labels this host satisfies.")
	runArgs.otelOptions.BindFlags(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	event, err := triggerEvent()
	if err != nil {
		return err
	}

	pipeline, err := provider.New(
		provider.WithStdin(cmd.InOrStdin()),
		provider.WithFile(),
	).Resolve(ctx, runArgs.file)
	if err != nil {
		return err
	}

	traceProvider, err := runArgs.otelOptions.BuildTraceProvider(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			logger.Error(err, "trace provider shutdown failed")
		}
	}()

	maskStore := mask.NewStore(nil)
	stdout := maskStore.Writer(cmd.OutOrStdout())
	stderr := maskStore.Writer(cmd.ErrOrStderr())

	secretStore, err := secretStore()
	if err != nil {
		return err
	}

	evaluator, err := condition.NewEvaluator()
	if err != nil {
		return err
	}

	registry := action.NewRegistry()
	action.RegisterBuiltins(registry, artifact.NewFS(runArgs.artifactDir), logger)

	driver := runtime.NewLocal(
		runtime.WithLogger(logger),
		runtime.WithShell(runArgs.shell),
		runtime.WithLabels(append([]string{"local", "any"}, runArgs.runnerLabels...)...),
	)

	seq := sequencer.New(evaluator, registry, driver,
		sequencer.WithLogger(logger),
		sequencer.WithSecrets(secretStore),
		sequencer.WithSecretWriter(maskStore),
		sequencer.WithStdio(stdout, stderr),
		sequencer.WithOSEnv(hostEnv()),
	)

	sched := scheduler.New(seq,
		scheduler.WithLogger(logger),
		scheduler.WithPool(pond.NewPool(runArgs.maxConcurrent)),
		scheduler.WithHook(func(event scheduler.Event) {
			if event.Type == scheduler.EventVariantFinished {
				logger.Info("variant finished", "job", event.Job, "variant", event.Variant, "status", event.Result.Status)
			}
		}),
	)

	eng := engine.New(evaluator, sched, registry,
		engine.WithLogger(logger),
		engine.WithTracer(traceProvider.Tracer(otelName)),
		engine.WithStdio(stdout, stderr),
	)

	result, err := eng.Run(ctx, event, &pipeline)
	if err != nil {
		return err
	}

	if err := writeReport(result); err != nil {
		return err
	}

	switch result.Status {
	case v1beta1.StatusSuccess, v1beta1.StatusSkipped:
		return nil
	default:
		if result.Err != nil {
			return fmt.Errorf("pipeline %s: %w", result.Status, result.Err)
		}

		return fmt.Errorf("pipeline %s", result.Status)
	}
}

func triggerEvent() (v1beta1.TriggerEvent, error) {
	event := v1beta1.TriggerEvent{
		Kind: v1beta1.EventKind(runArgs.event),
		Ref:  runArgs.ref,
		SHA:  runArgs.sha,
	}

	switch event.Kind {
	case v1beta1.EventKindPush, v1beta1.EventKindPullRequest, v1beta1.EventKindManual:
	default:
		return event, fmt.Errorf("unsupported event kind: %s", runArgs.event)
	}

	if runArgs.repository != "" {
		owner, name, ok := strings.Cut(runArgs.repository, "/")
		if !ok {
			return event, fmt.Errorf("repository must be owner/name: %s", runArgs.repository)
		}

		event.Repository = v1beta1.Repository{Owner: owner, Name: name}
	}

	return event, nil
}

func secretStore() (secrets.Store, error) {
	static := make(map[string]string, len(runArgs.secrets))
	for _, kv := range runArgs.secrets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("secret must be key=value: %s", kv)
		}

		static[k] = v
	}

	return secrets.Multi(
		secrets.Static(static),
		secrets.FromEnv(runArgs.secretEnvPrefix),
	), nil
}

// hostEnv exposes the host environment plus --env overrides to env vars
// declared without a value.
func hostEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	for _, kv := range runArgs.envs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}

func writeReport(result *engine.Result) error {
	if runArgs.report == "none" {
		return nil
	}

	var w io.Writer = os.Stdout
	if runArgs.reportOutput != "-" && runArgs.reportOutput != "" {
		f, err := os.Create(runArgs.reportOutput)
		if err != nil {
			return err
		}

		defer f.Close()
		w = f
	}

	var reporter report.Reporter
	switch runArgs.report {
	case "table":
		reporter = report.Table(w)
	case "json":
		reporter = report.JSON(w)
	case "markdown":
		reporter = report.Markdown(w)
	default:
		return errors.New("unsupported report format: " + runArgs.report)
	}

	return reporter.Write(result)
}

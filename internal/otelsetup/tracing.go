package otelsetup

import (
	"context"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Options struct {
	ServiceName string
	Stdout      bool
}

func DefaultOptions(serviceName string) *Options {
	return &Options{
		ServiceName: serviceName,
	}
}

func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Stdout, "otel-stdout", o.Stdout, "Export trace spans to stdout")
}

func (o *Options) BuildTraceProvider(ctx context.Context) (*trace.TracerProvider, error) {
	var providero []trace.TracerProviderOption

	if o.Stdout {
		exporter, err := stdouttrace.New()
		if err != nil {
			return nil, err
		}

		providero = append(providero, trace.WithBatcher(exporter))
	}

	providero = append(providero, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(o.ServiceName),
	)))

	providero = append(providero, trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(1))))
	provider := trace.NewTracerProvider(providero...)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
		),
	)

	return provider, nil
}

// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"

	"github.com/gorse-io/scoreprep/common/log"
	"github.com/gorse-io/scoreprep/config"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const ServiceName = "scoreprep"

// NewExporter creates the span exporter named in the config.
func NewExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case config.ExporterOTLP:
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint),
			otlptracegrpc.WithInsecure())
		return otlptrace.New(ctx, client)
	case config.ExporterOTLPHTTP:
		client := otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.CollectorEndpoint),
			otlptracehttp.WithInsecure())
		return otlptrace.New(ctx, client)
	case config.ExporterZipkin:
		return zipkin.New(cfg.CollectorEndpoint)
	}
	return nil, errors.NotSupportedf("exporter %s", cfg.Exporter)
}

// NewSampler creates the sampler named in the config.
func NewSampler(cfg config.TracingConfig) (sdktrace.Sampler, error) {
	switch cfg.Sampler {
	case config.SamplerAlways:
		return sdktrace.AlwaysSample(), nil
	case config.SamplerNever:
		return sdktrace.NeverSample(), nil
	case config.SamplerRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio), nil
	}
	return nil, errors.NotSupportedf("sampler %s", cfg.Sampler)
}

// Provider is a tracer provider with its shutdown hook.
type Provider struct {
	trace.TracerProvider
	shutdown func(ctx context.Context) error
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// NewTracerProvider creates a tracer provider. A noop provider is returned if
// tracing is disabled.
func NewTracerProvider(ctx context.Context, cfg config.TracingConfig) (*Provider, error) {
	if !cfg.EnableTracing {
		return &Provider{TracerProvider: noop.NewTracerProvider()}, nil
	}
	sampler, err := NewSampler(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	exporter, err := NewExporter(ctx, cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))))
	return &Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
}

// Setup installs the tracer provider and error handler globally.
func Setup(ctx context.Context, cfg config.TracingConfig) (*Provider, error) {
	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	otel.SetTracerProvider(tp)
	otel.SetErrorHandler(log.GetErrorHandler())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

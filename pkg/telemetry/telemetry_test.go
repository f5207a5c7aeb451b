package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/codes"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disable: true})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestEndRecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	End(ok, nil)
	_, failed := tracer.Start(context.Background(), "failed")
	End(failed, errors.New("boom"))
	End(nil, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", spans[0].Status().Code)
	}
	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "boom" {
		t.Errorf("unexpected error status: %+v", spans[1].Status())
	}
}

func TestEndpointFromEnv(t *testing.T) {
	env := map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4317"}
	getenv := func(k string) string { return env[k] }
	if got := endpointFromEnv(getenv); got != "http://collector:4317" {
		t.Errorf("got %q", got)
	}
	env["OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"] = " https://traces:4317 "
	if got := endpointFromEnv(getenv); got != "https://traces:4317" {
		t.Errorf("trace endpoint should win, got %q", got)
	}
}

func TestOTLPOptionsAcceptURLAndHostPort(t *testing.T) {
	if got := len(otlpOptions("http://collector:4317", "hfagent")); got != 2 {
		t.Errorf("URL endpoint: expected user agent and endpoint URL, got %d options", got)
	}
	if got := len(otlpOptions("collector:4317", "hfagent")); got != 3 {
		t.Errorf("host:port endpoint: expected user agent, endpoint and insecure, got %d options", got)
	}
}

func TestInitWritesSpansToWriter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		ServiceName: "hfagent-test",
		Writer:      &buf,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "imagegen.generate")
	End(span, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "imagegen.generate") {
		t.Errorf("span not exported: %q", buf.String())
	}
}

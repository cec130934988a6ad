package tracing_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/JaimeStill/wayfinder/pkg/tracing"
)

func TestInitExportsSpans(t *testing.T) {
	var buf bytes.Buffer

	shutdown, err := tracing.Init("wayfinder-test", "0.0.1", &buf)
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}

	_, span := otel.Tracer("tracing-test").Start(context.Background(), "test.span")
	tracing.End(span, errors.New("step failed"))

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "test.span") {
		t.Errorf("export missing span name: %s", out)
	}
	if !strings.Contains(out, "step failed") {
		t.Errorf("export missing recorded error: %s", out)
	}
}

package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type entrypointTestConfig struct {
	Addr string `env:"STORYGRAPH_ENTRYPOINT_TEST_ADDR" envDefault:":8080"`
}

func TestParseConfigFromArgs(t *testing.T) {
	var cfg entrypointTestConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var addr string
	fs.StringVar(&addr, "addr", "", "override addr")

	if err := ParseConfigFromArgs(&cfg, fs, []string{"-addr", ":9999"}); err != nil {
		t.Fatalf("parse config from args: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected env default :8080, got %q", cfg.Addr)
	}
	if addr != ":9999" {
		t.Fatalf("expected flag override :9999, got %q", addr)
	}
}

func TestParseArgsNilFlagSet(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
}

func TestRunWithTelemetryRequiresService(t *testing.T) {
	err := RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for blank service name")
	}
}

func TestRunWithTelemetryRequiresRun(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "storygraph-test", nil); err == nil {
		t.Fatal("expected error for nil run function")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	t.Setenv("STORYGRAPH_OTEL_ENDPOINT", "")

	want := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), "storygraph-test", func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected run error, got %v", err)
	}
}

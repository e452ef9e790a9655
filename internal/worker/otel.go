package worker

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/vaultcoh/vault/internal/worker"

type instruments struct {
	decoded  metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	m := otel.Meter(instrumentationName)
	var (
		in  instruments
		err error
	)
	in.decoded, err = m.Int64Counter(
		"worker.files.decoded",
		metric.WithDescription("Replay files decoded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decoded counter: %w", err)
	}
	in.failed, err = m.Int64Counter(
		"worker.files.failed",
		metric.WithDescription("Replay files that could not be read, decoded or stored"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	in.duration, err = m.Float64Histogram(
		"worker.decode.duration",
		metric.WithDescription("Time to read and decode one replay file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &in, nil
}

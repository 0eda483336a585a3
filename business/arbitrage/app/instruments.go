package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "solarb.arbitrage"

// engineInstruments holds OTEL metric instruments for the engine.
type engineInstruments struct {
	accepted  metric.Int64Counter
	dropped   metric.Int64Counter
	confirmed metric.Int64Counter
	failed    metric.Int64Counter
}

func newEngineInstruments() (engineInstruments, error) {
	meter := otel.Meter(meterName)
	var inst engineInstruments
	var err error

	inst.accepted, err = meter.Int64Counter(
		"arb_opportunities_accepted_total",
		metric.WithDescription("Opportunities accepted by a strategy and forwarded for execution"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return inst, err
	}

	inst.dropped, err = meter.Int64Counter(
		"arb_executions_dropped_total",
		metric.WithDescription("Opportunities dropped because the executor backlog was full"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return inst, err
	}

	inst.confirmed, err = meter.Int64Counter(
		"arb_executions_confirmed_total",
		metric.WithDescription("Executions confirmed on chain"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return inst, err
	}

	inst.failed, err = meter.Int64Counter(
		"arb_executions_failed_total",
		metric.WithDescription("Executions that failed"),
		metric.WithUnit("{execution}"),
	)
	return inst, err
}

// scannerInstruments holds OTEL metric instruments for the scanner.
type scannerInstruments struct {
	poolsScanned metric.Int64Counter
	found        metric.Int64Counter
}

func newScannerInstruments() (scannerInstruments, error) {
	meter := otel.Meter(meterName)
	var inst scannerInstruments
	var err error

	inst.poolsScanned, err = meter.Int64Counter(
		"arb_pools_scanned_total",
		metric.WithDescription("Pools examined across all DEXes"),
		metric.WithUnit("{pool}"),
	)
	if err != nil {
		return inst, err
	}

	inst.found, err = meter.Int64Counter(
		"arb_opportunities_found_total",
		metric.WithDescription("Raw opportunities clearing the scan threshold"),
		metric.WithUnit("{opportunity}"),
	)
	return inst, err
}

// addCount increments a counter that may be absent when the meter
// provider failed to initialize.
func addCount(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil && n > 0 {
		c.Add(ctx, n)
	}
}

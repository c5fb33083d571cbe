// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package timing records step transition events to InfluxDB. Recording
// is optional: when INFLUXDB_* is not configured the recorder is nil
// and every call is a no-op, so the study never depends on the
// timeseries stack being up.
package timing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/CredLens/pkg/config"
)

const measurement = "step_event"

// Recorder writes step events. A nil *Recorder is valid and drops
// everything.
type Recorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
	org      string
}

// NewRecorder connects to InfluxDB using the timing config plus the
// INFLUXDB_TOKEN env var. Returns nil (not an error) when the stack is
// not configured.
func NewRecorder(cfg config.TimingConfig) *Recorder {
	token := os.Getenv("INFLUXDB_TOKEN")
	if cfg.URL == "" || token == "" {
		slog.Info("Step timing disabled: InfluxDB not configured")
		return nil
	}

	client := influxdb2.NewClient(cfg.URL, token)
	slog.Info("Step timing enabled", "influx_url", cfg.URL, "bucket", cfg.Bucket)
	return &Recorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
		org:      cfg.Org,
	}
}

// Close releases the client.
func (r *Recorder) Close() {
	if r != nil {
		r.client.Close()
	}
}

// RecordStep writes one step transition with its dwell time. Failures
// are logged and swallowed: timing is best-effort telemetry.
func (r *Recorder) RecordStep(ctx context.Context, sessionID, step string, dwell time.Duration) {
	if r == nil {
		return
	}
	point := influxdb2.NewPoint(measurement,
		map[string]string{"step": step},
		map[string]any{
			"session_id": sessionID,
			"dwell_ms":   dwell.Milliseconds(),
		},
		time.Now())
	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.Warn("Failed to record step timing", "step", step, "error", err)
	}
}

// StepAverages queries the mean dwell per step over the given window,
// for the researcher dashboard.
func (r *Recorder) StepAverages(ctx context.Context, window time.Duration) (map[string]float64, error) {
	if r == nil {
		return map[string]float64{}, nil
	}
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == %q and r._field == "dwell_ms")
  |> group(columns: ["step"])
  |> mean()`, r.bucket, int(window.Seconds()), measurement)

	result, err := r.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query step averages: %w", err)
	}
	averages := map[string]float64{}
	for result.Next() {
		step, _ := result.Record().ValueByKey("step").(string)
		if v, ok := result.Record().Value().(float64); ok && step != "" {
			averages[step] = v
		}
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("read step averages: %w", result.Err())
	}
	return averages, nil
}

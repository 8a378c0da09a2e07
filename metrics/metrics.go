// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package metrics exposes Prometheus instrumentation for sensor readings
// and air quality results.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airgauge/airgauge/bme680"
	"github.com/airgauge/airgauge/iaq"
)

// metrics to expose to Prometheus
var (
	gaugeTemperature   = newGauge("air_temperature", "Air Temperature (units: degrees Celsius)")
	gaugeHumidity      = newGauge("air_humidity", "Humidity (units: % of relative Humidity)")
	gaugePressure      = newGauge("air_pressure", "Atmospheric Pressure (units: Pa)")
	gaugeGasResistance = newGauge("air_gas_resistance", "Gas sensor resistance (units: Ohm)")

	gaugeScore         = newGauge("iaq_score", "Indoor Air Quality score (0-500, lower is better)")
	gaugeCO2Equivalent = newGauge("iaq_co2_equivalent", "Estimated CO2 equivalent (units: ppm)")
	gaugeVOCEquivalent = newGauge("iaq_voc_equivalent", "Estimated breath VOC equivalent (units: ppm)")
	gaugeBaseline      = newGauge("iaq_gas_baseline", "Clean-air gas resistance baseline (units: Ohm)")
	gaugeProgress      = newGauge("iaq_calibration_progress", "Calibration burn-in progress (units: percent)")

	counterReadings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readings_total",
			Help: "Sensor readings observed, by validity.",
		},
		[]string{"device", "valid"},
	)
	counterCalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculations_total",
			Help: "Air quality calculations performed, by outcome.",
		},
		[]string{"device", "outcome"},
	)
)

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"device"},
	)
}

func init() {
	prometheus.MustRegister(gaugeTemperature)
	prometheus.MustRegister(gaugeHumidity)
	prometheus.MustRegister(gaugePressure)
	prometheus.MustRegister(gaugeGasResistance)
	prometheus.MustRegister(gaugeScore)
	prometheus.MustRegister(gaugeCO2Equivalent)
	prometheus.MustRegister(gaugeVOCEquivalent)
	prometheus.MustRegister(gaugeBaseline)
	prometheus.MustRegister(gaugeProgress)
	prometheus.MustRegister(counterReadings)
	prometheus.MustRegister(counterCalculations)

	// Add Go module build info.
	prometheus.MustRegister(collectors.NewBuildInfoCollector())
}

// Recorder binds the registered metrics to one device label.
type Recorder struct {
	device string
}

// NewRecorder returns a recorder labelling every observation with the
// device identifier, typically the MQTT client ID.
func NewRecorder(device string) *Recorder {
	return &Recorder{device: device}
}

// ObserveReading counts the reading and, when it is in range, updates the
// air gauges. The gas resistance gauge holds its last value across cycles
// where the heater had not stabilized.
func (r *Recorder) ObserveReading(reading bme680.Reading) {
	valid := reading.Valid()
	counterReadings.WithLabelValues(r.device, strconv.FormatBool(valid)).Inc()
	if !valid {
		return
	}

	gaugeTemperature.WithLabelValues(r.device).Set(reading.Temperature)
	gaugeHumidity.WithLabelValues(r.device).Set(reading.Humidity)
	gaugePressure.WithLabelValues(r.device).Set(reading.Pressure)
	if reading.GasValid {
		gaugeGasResistance.WithLabelValues(r.device).Set(reading.GasResistance)
	}
}

// ObserveResult updates the air quality gauges from one calculation.
func (r *Recorder) ObserveResult(result *iaq.Result) {
	if result == nil {
		return
	}

	gaugeScore.WithLabelValues(r.device).Set(result.Score)
	gaugeCO2Equivalent.WithLabelValues(r.device).Set(result.CO2Equivalent)
	gaugeVOCEquivalent.WithLabelValues(r.device).Set(result.VOCEquivalent)
	gaugeBaseline.WithLabelValues(r.device).Set(result.Baseline)
}

// SetCalibrationProgress records burn-in completion as a percentage.
func (r *Recorder) SetCalibrationProgress(percent int) {
	gaugeProgress.WithLabelValues(r.device).Set(float64(percent))
}

// RecordCalculation counts one calculation by outcome.
func (r *Recorder) RecordCalculation(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	counterCalculations.WithLabelValues(r.device, outcome).Inc()
}

// Handler serves the registered metrics, with OpenMetrics negotiation
// enabled so scrapers can request exemplar support.
func Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

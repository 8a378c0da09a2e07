// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/airgauge/airgauge/mqttpub"
	"github.com/stretchr/testify/require"
)

func TestStatusWill(t *testing.T) {
	will := mqttpub.StatusWill("airgauge-9")
	require.Equal(t, "sensor/bme680/status", will.Topic)
	require.True(t, will.Retain)
	require.Equal(t, byte(1), will.QoS)

	var status mqttpub.StatusPayload
	require.NoError(t, json.Unmarshal(will.Payload, &status))
	require.Equal(t, mqttpub.StatusOffline, status.Status)
	require.Equal(t, "airgauge-9", status.ClientID)

	// The will is composed before the outage it reports, so it carries no
	// timestamp.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(will.Payload, &raw))
	require.NotContains(t, raw, "timestamp")
}

func TestStatusWillCustomPrefix(t *testing.T) {
	will := mqttpub.StatusWill(
		"airgauge-9",
		mqttpub.WithTopicPrefix("home/air"),
	)
	require.Equal(t, "home/air/status", will.Topic)
}

// The JSON field names are the wire contract with the device firmware and
// its downstream consumers.
func TestPayloadKeys(t *testing.T) {
	keys := func(v any) []string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		ks := make([]string, 0, len(m))
		for k := range m {
			ks = append(ks, k)
		}
		return ks
	}

	require.ElementsMatch(t, []string{
		"temperature",
		"humidity",
		"pressure",
		"gas_resistance",
		"gas_valid",
		"timestamp",
	}, keys(mqttpub.DataPayload{}))

	require.ElementsMatch(t, []string{
		"iaq_score",
		"iaq_level",
		"iaq_text",
		"accuracy",
		"co2_equivalent",
		"voc_equivalent",
		"is_calibrated",
		"timestamp",
	}, keys(mqttpub.IAQPayload{}))

	require.ElementsMatch(t, []string{
		"type",
		"message",
		"client_id",
		"event_id",
		"timestamp",
	}, keys(mqttpub.AlertPayload{}))

	require.ElementsMatch(t, []string{
		"status",
		"client_id",
		"timestamp",
	}, keys(mqttpub.StatusPayload{Timestamp: 1}))
}

func TestPublisherStartStopState(t *testing.T) {
	ctx := context.Background()
	client := mqttpub.New(mqttpub.TCPConnection("localhost", 1))
	p := mqttpub.NewPublisher(client)

	var stateErr *mqttpub.ClientStateError
	require.ErrorAs(t, p.Stop(ctx), &stateErr)
	require.Equal(t, mqttpub.NotStarted, stateErr.State)

	require.NoError(t, p.Start(ctx))

	require.ErrorAs(t, p.Start(ctx), &stateErr)
	require.Equal(t, mqttpub.Started, stateErr.State)
}

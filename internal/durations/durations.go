// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package durations parses durations from configuration values.
package durations

import (
	"strconv"
	"time"

	"github.com/sosodev/duration"
)

// Parse converts a configuration value into a duration. A bare number is
// taken as whole seconds; otherwise both Go syntax ("30s") and ISO 8601
// syntax ("PT30S") are accepted.
func Parse(val string) (time.Duration, error) {
	if seconds, err := strconv.ParseUint(val, 10, 32); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	if d, err := time.ParseDuration(val); err == nil {
		return d, nil
	}

	d, err := duration.Parse(val)
	if err != nil {
		return 0, err
	}
	return d.ToTimeDuration(), nil
}

package main

import (
	"encoding/json"

	"github.com/nomis52/golaunch/activity"
)

// parseParams turns key=value flags into launch parameters. A value that is
// valid JSON is decoded, so n=3 is a number and tags=["a"] a list; anything
// else stays a string.
func parseParams(raw map[string]string) activity.Params {
	if len(raw) == 0 {
		return nil
	}
	params := make(activity.Params, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			params[k] = decoded
			continue
		}
		params[k] = v
	}
	return params
}

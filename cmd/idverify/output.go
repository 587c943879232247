package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type outputKind string

const (
	outputYAML outputKind = "yaml"
	outputJSON outputKind = "json"
)

var globalOutput = outputYAML

func setOutputFormat(format string) {
	if format == "json" {
		globalOutput = outputJSON
		return
	}
	globalOutput = outputYAML
}

// writeOutput encodes data in the configured format.
func writeOutput(w io.Writer, data any) error {
	switch globalOutput {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case outputYAML:
		// Round-trip through JSON so the json tags name the keys.
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown output format: %s", globalOutput)
	}
}

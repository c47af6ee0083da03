// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devices

import (
	"regexp"
	"strings"
)

const (
	// monitorPrefix starts the name PulseAudio gives monitor sources.
	monitorPrefix = "Monitor of"

	// monitorSuffix ends the name PipeWire gives monitor sources.
	monitorSuffix = ".monitor"

	// endpointMarker appears in the names of the filter chain's
	// capture and playback nodes.
	endpointMarker = "effect_"
)

var (
	recordBoundary = regexp.MustCompile(`(?m)^Source #\d+`)
	nameField      = regexp.MustCompile(`Name:\s*(.+)`)
	descField      = regexp.MustCompile(`Description:\s*(.+)`)
)

// ParseSources extracts selectable capture devices from "pactl list
// sources" output, in listing order.
func ParseSources(output string) []Device {
	var devices []Device
	for _, record := range recordBoundary.Split(output, -1) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		nameMatch := nameField.FindStringSubmatch(record)
		descMatch := descField.FindStringSubmatch(record)
		if nameMatch == nil || descMatch == nil {
			continue
		}
		device := Device{
			Name:        strings.TrimSpace(nameMatch[1]),
			Description: strings.TrimSpace(descMatch[1]),
		}
		if excluded(device.Name) {
			continue
		}
		devices = append(devices, device)
	}
	return devices
}

func excluded(name string) bool {
	return strings.HasPrefix(name, monitorPrefix) ||
		strings.HasSuffix(name, monitorSuffix) ||
		strings.Contains(name, endpointMarker)
}

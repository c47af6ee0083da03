// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devices

// Device is a capture endpoint.
type Device struct {
	// Name is the control-plane identifier used in routing commands,
	// e.g. "alsa_input.usb-Blue_Yeti-00.analog-stereo".
	Name string `json:"name"`

	// Description is the human-readable label, e.g. "Yeti Stereo
	// Microphone Analog Stereo".
	Description string `json:"description"`
}

// Display returns the label shown to users and accepted by
// FindByDisplay.
func (d Device) Display() string {
	return d.Description
}

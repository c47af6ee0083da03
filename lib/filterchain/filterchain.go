// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filterchain renders the PipeWire drop-in that loads the
// DeepFilterNet LADSPA plugin as a filter chain, and writes it to the
// path PipeWire reads at startup.
//
// The document is a fixed template. Only the plugin path and the
// attenuation limit come from [config.Settings]; node names, sample
// rate and channel layout are constants, and [InputNode] and
// [OutputNode] are the endpoints the connector routes loopbacks to and
// from.
//
// PipeWire only reads the file when the service starts, so a rewrite
// has no effect until the service is restarted.
package filterchain

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/template"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/quietmic/lib/atomicfile"
	"github.com/bureau-foundation/quietmic/lib/config"
)

// Endpoint nodes declared by the document.
const (
	// InputNode is the filter chain's capture side, exposed as an
	// Audio/Sink. Microphones are looped into it.
	InputNode = "effect_input.deep_filter"

	// OutputNode is the processed signal, exposed as an Audio/Source.
	OutputNode = "effect_output.deep_filter"

	// Description is the human-readable name of both nodes.
	Description = "DeepFilter Noise Cancelling"

	// SampleRate and Channels are fixed by the plugin's mono model.
	SampleRate = 48000
	Channels   = 1
)

var documentTemplate = template.Must(template.New("filter-chain").Parse(`# Generated by quietmic. Changes are overwritten on the next apply.
context.modules = [
    {
        name = libpipewire-module-filter-chain
        args = {
            node.description = "{{.Description}}"
            media.name = "{{.Description}}"
            filter.graph = {
                nodes = [
                    {
                        type = ladspa
                        name = deep_filter
                        plugin = "{{.PluginPath}}"
                        label = deep_filter_mono
                        control = {
                            "Attenuation Limit (dB)" = {{.Attenuation}}
                        }
                    }
                ]
            }
            audio.rate = {{.SampleRate}}
            audio.channels = {{.Channels}}
            audio.position = [ MONO ]
            capture.props = {
                node.name = "{{.InputNode}}"
                media.class = Audio/Sink
                audio.rate = {{.SampleRate}}
                audio.channels = {{.Channels}}
                stream.capture.sink = true
                node.passive = true
            }
            playback.props = {
                node.name = "{{.OutputNode}}"
                media.class = Audio/Source
                audio.rate = {{.SampleRate}}
                audio.channels = {{.Channels}}
            }
        }
    }
]
`))

type documentFields struct {
	Description string
	PluginPath  string
	Attenuation string
	SampleRate  int
	Channels    int
	InputNode   string
	OutputNode  string
}

// Render returns the document for settings.
func Render(settings *config.Settings) []byte {
	var buffer bytes.Buffer
	err := documentTemplate.Execute(&buffer, documentFields{
		Description: Description,
		PluginPath:  settings.PluginPath,
		Attenuation: strconv.FormatFloat(settings.Attenuation, 'f', 1, 64),
		SampleRate:  SampleRate,
		Channels:    Channels,
		InputNode:   InputNode,
		OutputNode:  OutputNode,
	})
	if err != nil {
		// The template only reads string and int fields.
		panic(fmt.Sprintf("rendering filter chain: %v", err))
	}
	return buffer.Bytes()
}

// Write renders settings and atomically replaces settings.ConfigPath,
// creating its directory if needed. A failed write leaves any previous
// file untouched.
func Write(settings *config.Settings) error {
	if settings.ConfigPath == "" {
		return errors.New("no filter chain config path configured")
	}
	if err := atomicfile.Write(settings.ConfigPath, Render(settings), 0o644); err != nil {
		return fmt.Errorf("writing filter chain config: %w", err)
	}
	return nil
}

// Digest returns the hex BLAKE3 digest of content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// InSync reports whether the file at settings.ConfigPath holds exactly
// what Render would produce now. A missing file is not in sync; other
// read errors are returned.
func InSync(settings *config.Settings) (bool, error) {
	current, err := os.ReadFile(settings.ConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading filter chain config: %w", err)
	}
	return Digest(current) == Digest(Render(settings)), nil
}

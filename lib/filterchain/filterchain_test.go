// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filterchain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/quietmic/lib/config"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	settings := config.Default()
	settings.ConfigPath = filepath.Join(t.TempDir(), "pipewire.conf.d", "99-deepfilter.conf")
	settings.PluginPath = "/opt/ladspa/libdeep_filter_ladspa.so"
	return settings
}

func TestRenderEmbedsSettings(t *testing.T) {
	settings := testSettings(t)
	if err := settings.SetAttenuation(37.5); err != nil {
		t.Fatal(err)
	}
	document := string(Render(settings))

	for _, want := range []string{
		"name = libpipewire-module-filter-chain",
		`plugin = "/opt/ladspa/libdeep_filter_ladspa.so"`,
		"label = deep_filter_mono",
		`"Attenuation Limit (dB)" = 37.5`,
		`node.name = "effect_input.deep_filter"`,
		`node.name = "effect_output.deep_filter"`,
		"media.class = Audio/Sink",
		"media.class = Audio/Source",
		"audio.rate = 48000",
		"audio.channels = 1",
		"audio.position = [ MONO ]",
		`node.description = "DeepFilter Noise Cancelling"`,
	} {
		if !strings.Contains(document, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(document, settings.ConfigPath) {
		t.Error("document should not embed its own path")
	}
}

func TestRenderFormatsWholeNumbers(t *testing.T) {
	settings := testSettings(t)
	if !strings.Contains(string(Render(settings)), `"Attenuation Limit (dB)" = 100.0`) {
		t.Errorf("default attenuation not rendered as 100.0")
	}
}

func TestWriteAndInSync(t *testing.T) {
	settings := testSettings(t)

	inSync, err := InSync(settings)
	if err != nil || inSync {
		t.Fatalf("InSync before write = %v, %v; want false, nil", inSync, err)
	}

	if err := Write(settings); err != nil {
		t.Fatalf("Write: %v", err)
	}
	written, err := os.ReadFile(settings.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != string(Render(settings)) {
		t.Error("written file differs from Render")
	}
	if inSync, err := InSync(settings); err != nil || !inSync {
		t.Errorf("InSync after write = %v, %v; want true, nil", inSync, err)
	}

	if err := settings.SetAttenuation(12); err != nil {
		t.Fatal(err)
	}
	if inSync, _ := InSync(settings); inSync {
		t.Error("InSync should be false after the attenuation changes")
	}
	if err := Write(settings); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if inSync, _ := InSync(settings); !inSync {
		t.Error("InSync should be true after rewriting")
	}
}

func TestWriteFailureLeavesPriorFile(t *testing.T) {
	settings := testSettings(t)
	blocker := filepath.Join(t.TempDir(), "not-a-directory")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	settings.ConfigPath = filepath.Join(blocker, "99-deepfilter.conf")

	if err := Write(settings); err == nil {
		t.Fatal("Write succeeded beneath a regular file")
	}
	data, _ := os.ReadFile(blocker)
	if string(data) != "x" {
		t.Errorf("blocking file modified: %q", data)
	}
}

func TestWriteRequiresPath(t *testing.T) {
	settings := testSettings(t)
	settings.ConfigPath = ""
	if err := Write(settings); err == nil {
		t.Error("Write with no path succeeded")
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("context.modules = []"))
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a != Digest([]byte("context.modules = []")) {
		t.Error("digest is not deterministic")
	}
	if a == Digest([]byte("context.modules = [ ]")) {
		t.Error("different content produced the same digest")
	}
}

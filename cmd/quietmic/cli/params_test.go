// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

type sharedParams struct {
	Config  string `flag:"config" desc:"settings file"`
	Verbose bool   `flag:"verbose,v" desc:"debug logging"`
}

func TestBindFlagsTypesAndEmbedding(t *testing.T) {
	var params struct {
		sharedParams
		JSONOutput
		Attenuation float64       `flag:"attenuation" desc:"limit in dB" default:"100"`
		Repeat      int           `flag:"repeat" default:"1"`
		Settle      time.Duration `flag:"settle" default:"3s"`
		Units       []string      `flag:"units" default:"pipewire,wireplumber"`
		Ignored     string
	}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	if params.Attenuation != 100 || params.Repeat != 1 || params.Settle != 3*time.Second || len(params.Units) != 2 {
		t.Errorf("defaults not applied: %+v", params)
	}

	err := flagSet.Parse([]string{"--config", "/tmp/q.yaml", "-v", "--json", "--attenuation=12.5", "--units", "pipewire"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Config != "/tmp/q.yaml" || !params.Verbose || !params.OutputJSON {
		t.Errorf("embedded flags not bound: %+v", params)
	}
	if params.Attenuation != 12.5 {
		t.Errorf("Attenuation = %v", params.Attenuation)
	}
	if len(params.Units) != 1 || params.Units[0] != "pipewire" {
		t.Errorf("Units = %v", params.Units)
	}
	if flagSet.Lookup("ignored") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlagsErrors(t *testing.T) {
	if err := BindFlags(struct{}{}, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("non-pointer params accepted")
	}

	var unsupported struct {
		Channel chan int `flag:"channel"`
	}
	err := BindFlags(&unsupported, pflag.NewFlagSet("x", pflag.ContinueOnError))
	if err == nil || !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("unsupported field error = %v", err)
	}

	var badDefault struct {
		Count int `flag:"count" default:"many"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("x", pflag.ContinueOnError)); err == nil {
		t.Error("invalid default accepted")
	}
}

func TestFlagsFromParamsPanicsOnInvalidParams(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic")
		}
	}()
	FlagsFromParams("bad", 42)
}

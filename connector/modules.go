// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package connector

import (
	"strings"
)

// Module is one row of "pactl list modules short".
type Module struct {
	ID   string
	Name string

	// Args holds the key=value arguments the module was loaded with.
	// Arguments without "=" are stored with an empty value.
	Args map[string]string
}

// ParseModules parses "pactl list modules short": one tab-separated
// line per module holding id, name and an optional space-separated
// argument list. Lines with fewer than two fields are skipped.
func ParseModules(output string) []Module {
	var modules []Module
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 2 {
			continue
		}
		module := Module{
			ID:   strings.TrimSpace(fields[0]),
			Name: strings.TrimSpace(fields[1]),
			Args: make(map[string]string),
		}
		if module.ID == "" || module.Name == "" {
			continue
		}
		if len(fields) >= 3 {
			for _, argument := range strings.Fields(fields[2]) {
				key, value, _ := strings.Cut(argument, "=")
				module.Args[key] = value
			}
		}
		modules = append(modules, module)
	}
	return modules
}

// findLoopback returns the first loopback module whose argument key
// equals value.
func findLoopback(modules []Module, key, value string) (Module, bool) {
	for _, module := range modules {
		if module.Name == loopbackModule && module.Args[key] == value {
			return module, true
		}
	}
	return Module{}, false
}

// findModule returns the module with the given id.
func findModule(modules []Module, id string) (Module, bool) {
	for _, module := range modules {
		if module.ID == id {
			return module, true
		}
	}
	return Module{}, false
}

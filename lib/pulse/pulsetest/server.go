// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pulsetest provides an in-memory stand-in for a PipeWire
// server driven through pactl and systemctl. [Server] implements
// [execrun.Runner], so it plugs in wherever the real runner does and
// lets tests exercise the full connect/apply/restart sequence against a
// module table that actually changes.
package pulsetest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bureau-foundation/quietmic/lib/execrun"
)

// Filter-chain node names the server exposes while the filter chain is
// installed. They match what the generated configuration declares.
const (
	FilterInput  = "effect_input.deep_filter"
	FilterOutput = "effect_output.deep_filter"
)

// Source is a capture device known to the server.
type Source struct {
	Name        string
	Description string
}

// Module is one loaded module.
type Module struct {
	ID   int
	Name string
	Args string
}

// Server is a simulated control plane. The zero value is not usable;
// call NewServer.
type Server struct {
	mu          sync.Mutex
	sources     []Source
	sinks       []string
	modules     []Module
	nextID      int
	defaultSink string
	filter      bool

	// pendingProbes counts sink listings that still omit the filter
	// nodes after a restart.
	pendingProbes int
	probeDelay    int

	failures map[string]string
	calls    []string
	restarts int
}

// NewServer returns a server with the given capture devices, a single
// output sink named "alsa_output.speakers" as default, the filter chain
// installed, and a couple of unrelated modules already loaded.
func NewServer(sources ...Source) *Server {
	server := &Server{
		sources:     append([]Source(nil), sources...),
		sinks:       []string{"alsa_output.speakers"},
		defaultSink: "alsa_output.speakers",
		filter:      true,
		nextID:      536870912,
		failures:    make(map[string]string),
	}
	server.modules = []Module{
		{ID: 1, Name: "module-always-sink"},
		{ID: 2, Name: "module-filter-chain", Args: "node.description=DeepFilter"},
	}
	return server
}

// SetDefaultSink changes the default output. Empty simulates a server
// with no default sink.
func (s *Server) SetDefaultSink(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultSink = name
}

// RemoveSource unplugs a capture device.
func (s *Server) RemoveSource(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sources[:0]
	for _, source := range s.sources {
		if source.Name != name {
			kept = append(kept, source)
		}
	}
	s.sources = kept
}

// SetProbeDelay makes the filter nodes reappear only after n sink
// listings following each restart.
func (s *Server) SetProbeDelay(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeDelay = n
}

// Fail makes every command whose line starts with prefix exit 1 with
// the given stderr, until Heal is called.
func (s *Server) Fail(prefix, stderr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = stderr
}

// Heal removes a failure registered with Fail.
func (s *Server) Heal(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, prefix)
}

// AddModule inserts a module directly, as another application would.
// Returns its id.
func (s *Server) AddModule(name, args string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.Itoa(s.addModuleLocked(name, args))
}

// Loopbacks returns the loaded loopback modules in load order.
func (s *Server) Loopbacks() []Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	var loopbacks []Module
	for _, module := range s.modules {
		if module.Name == "module-loopback" {
			loopbacks = append(loopbacks, module)
		}
	}
	return loopbacks
}

// Restarts returns how many successful service restarts have happened.
func (s *Server) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// Calls returns every command line received, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many received command lines start with prefix.
func (s *Server) CallCount(prefix string) int {
	count := 0
	for _, line := range s.Calls() {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}

// Run implements execrun.Runner.
func (s *Server) Run(_ context.Context, command execrun.Command) execrun.Result {
	line := command.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, line)

	for prefix, stderr := range s.failures {
		if strings.HasPrefix(line, prefix) {
			return failure(line, stderr)
		}
	}

	switch {
	case command.Name == "systemctl":
		return s.restartLocked(line, command.Args)
	case command.Name != "pactl":
		return failure(line, command.Name+": command not found")
	}

	args := command.Args
	switch {
	case matches(args, "list", "sources"):
		return success(line, s.renderSourcesLocked())
	case matches(args, "list", "modules", "short"):
		return success(line, s.renderModulesLocked())
	case matches(args, "list", "short", "sinks"):
		return success(line, s.renderSinksLocked())
	case matches(args, "get-default-sink"):
		if s.defaultSink == "" {
			return failure(line, "Failure: No such entity")
		}
		return success(line, s.defaultSink+"\n")
	case len(args) == 2 && args[0] == "unload-module":
		return s.unloadLocked(line, args[1])
	case len(args) >= 2 && args[0] == "load-module":
		return s.loadLocked(line, args[1], args[2:])
	}
	return failure(line, "No valid command specified.")
}

func matches(args []string, want ...string) bool {
	if len(args) != len(want) {
		return false
	}
	for i := range want {
		if args[i] != want[i] {
			return false
		}
	}
	return true
}

func success(line, stdout string) execrun.Result {
	return execrun.Result{Command: line, Stdout: stdout}
}

func failure(line, stderr string) execrun.Result {
	return execrun.Result{Command: line, Stderr: stderr + "\n", ExitCode: 1}
}

func (s *Server) addModuleLocked(name, args string) int {
	s.nextID++
	s.modules = append(s.modules, Module{ID: s.nextID, Name: name, Args: args})
	return s.nextID
}

func (s *Server) loadLocked(line, name string, args []string) execrun.Result {
	if name != "module-loopback" {
		return failure(line, "Failure: Module initialization failed")
	}
	parsed := make(map[string]string)
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		parsed[key] = value
	}
	if !s.hasSourceLocked(parsed["source"]) || !s.hasSinkLocked(parsed["sink"]) {
		return failure(line, "Failure: Module initialization failed")
	}
	id := s.addModuleLocked(name, strings.Join(args, " "))
	return success(line, strconv.Itoa(id)+"\n")
}

func (s *Server) unloadLocked(line, id string) execrun.Result {
	for i, module := range s.modules {
		if strconv.Itoa(module.ID) == id {
			s.modules = append(s.modules[:i], s.modules[i+1:]...)
			return success(line, "")
		}
	}
	return failure(line, "Failure: No such entity")
}

func (s *Server) restartLocked(line string, args []string) execrun.Result {
	if len(args) < 3 || args[0] != "--user" || args[1] != "restart" {
		return failure(line, "Unknown command verb "+strings.Join(args, " ")+".")
	}
	// Every module not restored by the server's own configuration is
	// gone after a restart.
	var kept []Module
	for _, module := range s.modules {
		if module.Name != "module-loopback" {
			kept = append(kept, module)
		}
	}
	s.modules = kept
	s.restarts++
	s.pendingProbes = s.probeDelay
	return success(line, "")
}

func (s *Server) filterVisibleLocked() bool {
	return s.filter && s.pendingProbes == 0
}

func (s *Server) hasSourceLocked(name string) bool {
	if name == FilterOutput {
		return s.filterVisibleLocked()
	}
	for _, source := range s.sources {
		if source.Name == name {
			return true
		}
	}
	return false
}

func (s *Server) hasSinkLocked(name string) bool {
	if name == FilterInput {
		return s.filterVisibleLocked()
	}
	for _, sink := range s.sinks {
		if sink == name {
			return true
		}
	}
	return false
}

func (s *Server) renderModulesLocked() string {
	modules := append([]Module(nil), s.modules...)
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	var builder strings.Builder
	for _, module := range modules {
		fmt.Fprintf(&builder, "%d\t%s\t%s\n", module.ID, module.Name, module.Args)
	}
	return builder.String()
}

func (s *Server) renderSinksLocked() string {
	var builder strings.Builder
	index := 40
	names := append([]string(nil), s.sinks...)
	if s.filterVisibleLocked() {
		names = append(names, FilterInput)
	} else if s.pendingProbes > 0 {
		s.pendingProbes--
	}
	for _, name := range names {
		fmt.Fprintf(&builder, "%d\t%s\tPipeWire\tfloat32le 1ch 48000Hz\tSUSPENDED\n", index, name)
		index++
	}
	return builder.String()
}

// renderSourcesLocked produces the long "pactl list sources" format,
// including the monitor source pactl reports for every sink and the
// filter chain's own output node.
func (s *Server) renderSourcesLocked() string {
	var builder strings.Builder
	index := 60
	write := func(name, description string) {
		fmt.Fprintf(&builder, "Source #%d\n", index)
		fmt.Fprintf(&builder, "\tState: SUSPENDED\n")
		fmt.Fprintf(&builder, "\tName: %s\n", name)
		fmt.Fprintf(&builder, "\tDescription: %s\n", description)
		fmt.Fprintf(&builder, "\tDriver: PipeWire\n")
		fmt.Fprintf(&builder, "\tSample Specification: s16le 2ch 48000Hz\n")
		fmt.Fprintf(&builder, "\tProperties:\n")
		fmt.Fprintf(&builder, "\t\tnode.name = \"%s\"\n\n", name)
		index++
	}
	for _, sink := range s.sinks {
		write(sink+".monitor", "Monitor of "+sink)
	}
	for _, source := range s.sources {
		write(source.Name, source.Description)
	}
	if s.filterVisibleLocked() {
		write(FilterOutput, "DeepFilter Noise Cancelling")
	}
	return builder.String()
}

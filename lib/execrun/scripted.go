// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package execrun

import (
	"context"
	"strings"
	"sync"
)

// Scripted is a Runner whose responses are programmed by the test.
// Patterns are matched against Command.String(): a pattern ending in
// "*" matches by prefix, anything else must match exactly. When more
// than one pattern matches, the most recently registered wins, so a
// test can override a default response mid-way. Unmatched commands
// fail with exit status 1.
type Scripted struct {
	mu    sync.Mutex
	rules []scriptedRule
	calls []Command
}

type scriptedRule struct {
	pattern string
	respond func(Command) Result
}

// NewScripted returns a Scripted runner with no responses.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Respond registers a fixed result for pattern.
func (s *Scripted) Respond(pattern string, result Result) {
	s.RespondFunc(pattern, func(Command) Result { return result })
}

// RespondFunc registers a computed result for pattern.
func (s *Scripted) RespondFunc(pattern string, respond func(Command) Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, scriptedRule{pattern: pattern, respond: respond})
}

// Run records command and returns the programmed result.
func (s *Scripted) Run(_ context.Context, command Command) Result {
	line := command.String()

	s.mu.Lock()
	s.calls = append(s.calls, command)
	var respond func(Command) Result
	for i := len(s.rules) - 1; i >= 0; i-- {
		if matchPattern(s.rules[i].pattern, line) {
			respond = s.rules[i].respond
			break
		}
	}
	s.mu.Unlock()

	if respond == nil {
		return Result{Command: line, Stderr: "unexpected command: " + line, ExitCode: exitFailure}
	}
	result := respond(command)
	result.Command = line
	return result
}

// Calls returns the command lines run so far, in order.
func (s *Scripted) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, len(s.calls))
	for i, command := range s.calls {
		lines[i] = command.String()
	}
	return lines
}

// CallCount returns how many recorded command lines match pattern.
func (s *Scripted) CallCount(pattern string) int {
	count := 0
	for _, line := range s.Calls() {
		if matchPattern(pattern, line) {
			count++
		}
	}
	return count
}

func matchPattern(pattern, line string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(line, prefix)
	}
	return pattern == line
}

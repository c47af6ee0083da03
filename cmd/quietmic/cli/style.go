// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles colors human-readable output. Colors are ANSI 256 codes; the
// renderer drops them when the writer is not a color terminal.
type Styles struct {
	Heading lipgloss.Style
	Good    lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	Faint   lipgloss.Style
}

// NewStyles returns styles rendered for w.
func NewStyles(w io.Writer) Styles {
	renderer := lipgloss.NewRenderer(w)
	return Styles{
		Heading: renderer.NewStyle().Bold(true),
		Good:    renderer.NewStyle().Foreground(lipgloss.Color("42")),
		Warn:    renderer.NewStyle().Foreground(lipgloss.Color("214")),
		Bad:     renderer.NewStyle().Foreground(lipgloss.Color("196")),
		Faint:   renderer.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// Package ui styles plain terminal output with lipgloss.
//
// There is no interactive interface: commands print lines, and [Palette] colors the parts that matter
// (headings, per-item outcomes, warnings, hints). Styles degrade to plain text when the output is not a terminal.
package ui

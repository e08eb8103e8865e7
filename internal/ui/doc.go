// Package ui styles command-line output with lipgloss.
//
// Styling degrades to plain text when the output is not a terminal, so command output stays
// greppable when piped.
package ui

package main

import (
	"fmt"
	"os"
)

// ANSI sequences for the terminal helpers. --no-color suppresses them.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + ansiReset
}

// notify writes a glyph-prefixed line to stderr, keeping stdout clean
// for piped command output (export, vehicles show, params show).
func notify(color, glyph, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, glyph+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { notify(ansiGreen, "✓", format, args...) }
func printError(format string, args ...any)   { notify(ansiRed, "✗", format, args...) }
func printWarning(format string, args ...any) { notify(ansiYellow, "⚠", format, args...) }
func printStep(format string, args ...any)    { notify(ansiCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(ansiBold, label+":"), fmt.Sprintf(format, args...))
}

// formatMoney renders a sterling amount the way the calculator API does.
func formatMoney(v float64) string {
	return fmt.Sprintf("£%.2f", v)
}

// formatValuation distinguishes a priced vehicle from one still waiting
// on its background valuation lookup.
func formatValuation(v float64) string {
	if v == 0 {
		return "valuation pending"
	}
	return formatMoney(v)
}

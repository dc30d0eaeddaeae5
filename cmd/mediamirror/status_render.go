package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	tag   string
	color color.Attribute
}{
	statusInfo:  {"INFO", color.FgBlue},
	statusOK:    {"OK", color.FgGreen},
	statusWarn:  {"WARN", color.FgYellow},
	statusError: {"ERROR", color.FgRed},
}

// renderStatusLine formats "  label:   [TAG] message" with the label padded
// so tags line up across a block.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-20s [%s]", label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	return paint(style.color, line, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	return []string{
		paint(color.FgBlue, heading, colorize),
		paint(color.FgBlue, strings.Repeat("-", len(heading)), colorize),
	}
}

func paint(attr color.Attribute, s string, colorize bool) string {
	if !colorize {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

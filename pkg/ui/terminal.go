// Package ui renders command line output for igproxy.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ASCIILogo is printed when the server starts
const ASCIILogo = `
 ██╗ ██████╗ ██████╗ ██████╗  ██████╗ ██╗  ██╗██╗   ██╗
 ██║██╔════╝ ██╔══██╗██╔══██╗██╔═══██╗╚██╗██╔╝╚██╗ ██╔╝
 ██║██║  ███╗██████╔╝██████╔╝██║   ██║ ╚███╔╝  ╚████╔╝
 ██║██║   ██║██╔═══╝ ██╔══██╗██║   ██║ ██╔██╗   ╚██╔╝
 ██║╚██████╔╝██║     ██║  ██║╚██████╔╝██╔╝ ██╗   ██║
 ╚═╝ ╚═════╝ ╚═╝     ╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝
        INSTAGRAM MEDIA PROXY`

// Printer writes styled messages. Quiet suppresses everything except errors.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool
	styles styles
}

// NewPrinter creates a printer for out and errOut
func NewPrinter(out, errOut io.Writer, quiet bool) *Printer {
	return &Printer{
		out:    out,
		errOut: errOut,
		quiet:  quiet,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Stdout returns a printer for the process's standard streams
func Stdout(quiet bool) *Printer {
	return NewPrinter(os.Stdout, os.Stderr, quiet)
}

// Logo prints the ASCII logo
func (p *Printer) Logo() {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.styles.logo.Render(ASCIILogo))
}

// Error prints an error message, optionally followed by its cause
func (p *Printer) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.errOut, p.styles.err.Render("✗ "+msg))
}

// Success prints a success message
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.styles.success.Render("✓ "+msg))
}

// Info prints a labelled value
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.styles.label.Render(label), p.styles.value.Render(value))
}

// Warning prints a warning message
func (p *Printer) Warning(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.styles.warning.Render("! "+msg))
}

// Raw writes text unstyled, even in quiet mode
func (p *Printer) Raw(text string) {
	fmt.Fprintln(p.out, text)
}

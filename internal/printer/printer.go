// Package printer writes human-facing CLI output: errors, status lines,
// doctor reports and chat messages.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/criterio"

	"github.com/hay-kot/chatbox/internal/styles"
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d75f6b"))
	successStyle = lipgloss.NewStyle().Foreground(styles.ColorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(styles.ColorYellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(styles.ColorGray)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

type ctxKey struct{}

// Printer handles formatted output with colors and styles
type Printer struct {
	writer io.Writer
}

// New creates a new Printer that writes to the given writer
func New(w io.Writer) *Printer {
	return &Printer{
		writer: w,
	}
}

// NewContext returns a context with the printer attached
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx retrieves the printer from context, or creates a default one
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(s string) {
	_, _ = io.WriteString(p.writer, s+"\n")
}

// FatalError prints a formatted error box and does NOT exit
// Caller should handle exit code
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		p.printValidationErrors(err, fieldErrs)
		return
	}

	p.line(errorStyle.Render("╭ Error"))
	p.line(errorStyle.Render("│") + " " + mutedStyle.Render(err.Error()))
	p.line(errorStyle.Render("╵"))
}

// printValidationErrors lists each field error under the wrapping context,
// e.g. "load config: invalid config".
func (p *Printer) printValidationErrors(wrappedErr error, fieldErrs criterio.FieldErrors) {
	errStr := wrappedErr.Error()
	fieldErrStr := fieldErrs.Error()

	errContext := ""
	if idx := strings.Index(errStr, fieldErrStr); idx > 0 {
		errContext = strings.TrimSuffix(errStr[:idx], ": ")
	}

	p.line(errorStyle.Render("╭ Validation Error"))

	if errContext != "" {
		p.line(errorStyle.Render("│") + " " + mutedStyle.Render(errContext))
		p.line(errorStyle.Render("│"))
	}

	for _, fe := range fieldErrs {
		s := errorStyle.Render("│") + " " + errorStyle.Render(Cross) + " "
		if fe.Field != "" {
			s += mutedStyle.Render(fe.Field + ": ")
		}
		p.line(s + fe.Err.Error())
	}

	p.line(errorStyle.Render("╵"))
}

// Errorf prints an error message in red
func (p *Printer) Errorf(format string, args ...any) {
	p.line(errorStyle.Render(Cross + " " + fmt.Sprintf(format, args...)))
}

// Successf prints a success message in green
func (p *Printer) Successf(format string, args ...any) {
	p.line(successStyle.Render(Check + " " + fmt.Sprintf(format, args...)))
}

// Infof prints an info message in gray
func (p *Printer) Infof(format string, args ...any) {
	p.line(mutedStyle.Render(Dot + " " + fmt.Sprintf(format, args...)))
}

// Warnf prints a warning message in yellow
func (p *Printer) Warnf(format string, args ...any) {
	p.line(warnStyle.Render(Dot + " " + fmt.Sprintf(format, args...)))
}

// Printf prints a plain message without colors
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Banner prints the chatbox banner.
func (p *Printer) Banner() {
	p.line(styles.BannerStyle.Render(styles.Banner))
	p.line("")
}

// Section prints a section header (bold + underlined)
func (p *Printer) Section(title string) {
	p.line(sectionStyle.Render(title))
}

// CheckItem prints a success item with green checkmark
func (p *Printer) CheckItem(label, detail string) {
	p.printItem(successStyle, Check, label, detail)
}

// WarnItem prints a warning item with yellow dot
func (p *Printer) WarnItem(label, detail string) {
	p.printItem(warnStyle, Dot, label, detail)
}

// FailItem prints a failure item with red cross
func (p *Printer) FailItem(label, detail string) {
	p.printItem(errorStyle, Cross, label, detail)
}

func (p *Printer) printItem(style lipgloss.Style, symbol, label, detail string) {
	s := "  " + style.Render(symbol) + " " + label
	if detail != "" {
		s += ": " + detail
	}
	p.line(s)
}

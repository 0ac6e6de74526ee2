// Package terminal renders report markup for a terminal and provides a
// message sink that prints instead of editing a chat message.
package terminal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

var (
	boldStyle = lipgloss.NewStyle().Bold(true)
	codeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Render converts the chat markup subset (<b>, <i>, <code>) to styled
// terminal text. Unknown tags are dropped and entities are decoded.
func Render(markup string) string {
	var sb strings.Builder
	bold, code := 0, 0
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF at the end of input; anything else is treated the same.
			return sb.String()
		case html.TextToken:
			text := string(z.Text())
			style := lipgloss.NewStyle()
			if bold > 0 {
				style = style.Inherit(boldStyle)
			}
			if code > 0 {
				style = style.Inherit(codeStyle)
			}
			sb.WriteString(renderLines(style, text))
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "b", "strong":
				bold++
			case "code", "pre":
				code++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "b", "strong":
				if bold > 0 {
					bold--
				}
			case "code", "pre":
				if code > 0 {
					code--
				}
			}
		}
	}
}

// renderLines styles each line separately so newlines survive.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Printer is a message sink for local runs. Status updates go to status
// and only the last text is written to out by Flush.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	status io.Writer
	last   string
}

// NewPrinter creates a Printer.
func NewPrinter(out, status io.Writer) *Printer {
	return &Printer{out: out, status: status}
}

// Edit records markup. The text it supersedes is echoed to status.
func (p *Printer) Edit(_ context.Context, markup string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != "" && p.status != nil {
		fmt.Fprintln(p.status, Render(p.last))
	}
	p.last = markup
	return nil
}

// Flush writes the final text to out.
func (p *Printer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.out, Render(p.last))
	return err
}

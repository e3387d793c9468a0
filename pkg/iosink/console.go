package iosink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Console is the default Sink adapter: plain terminal I/O with
// lipgloss-rendered colour for SetColour (github.com/charmbracelet/lipgloss),
// the same styling library pkg/ui uses for CLI output. Graphics, window,
// keyboard, and mouse calls are out of scope for a console backend and
// return ErrUnsupported; no window system is wired into this adapter.
type Console struct {
	out     io.Writer
	in      *bufio.Reader
	style   lipgloss.Style
	started time.Time
}

// NewConsole builds a Console sink over stdin/stdout.
func NewConsole() *Console {
	return &Console{
		out:     os.Stdout,
		in:      bufio.NewReader(os.Stdin),
		style:   lipgloss.NewStyle(),
		started: time.Now(),
	}
}

func (c *Console) Print(s string)   { fmt.Fprint(c.out, c.style.Render(s)) }
func (c *Console) Println(s string) { fmt.Fprintln(c.out, c.style.Render(s)) }
func (c *Console) Newline()         { fmt.Fprintln(c.out) }

func (c *Console) Input() (string, error) {
	line, err := c.in.ReadString('\n')
	return trimNewline(line), err
}

func (c *Console) InputPrompt(prompt string) (string, error) {
	c.Print(prompt)
	return c.Input()
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func (c *Console) GraphicsMode(w, h int) error        { return ErrUnsupported }
func (c *Console) TextMode() error                    { return nil }
func (c *Console) ClearScreen() error {
	fmt.Fprint(c.out, "\x1b[H\x1b[2J")
	return nil
}

func (c *Console) SetColour(r, g, b int) error {
	c.style = lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b)))
	return nil
}

func (c *Console) DrawPixel(x, y int) error                     { return ErrUnsupported }
func (c *Console) DrawLine(x1, y1, x2, y2 int) error             { return ErrUnsupported }
func (c *Console) DrawRect(x, y, w, h int, filled bool) error    { return ErrUnsupported }
func (c *Console) DrawCircle(x, y, r int, filled bool) error     { return ErrUnsupported }
func (c *Console) DrawText(x, y int, s string) error             { return ErrUnsupported }
func (c *Console) RefreshScreen() error                         { return nil }
func (c *Console) KeyPressed(name string) (bool, error)          { return false, ErrUnsupported }
func (c *Console) MouseClicked() (bool, error)                   { return false, ErrUnsupported }
func (c *Console) GetMousePos() (int, int, error)                { return 0, 0, ErrUnsupported }
func (c *Console) QuitRequested() (bool, error)                  { return false, nil }
func (c *Console) SleepMs(n int)                                 { time.Sleep(time.Duration(n) * time.Millisecond) }
func (c *Console) GetTicks() int64                               { return time.Since(c.started).Milliseconds() }
func (c *Console) Close() error                                  { return nil }

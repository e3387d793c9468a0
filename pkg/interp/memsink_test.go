package interp

import (
	"bufio"
	"strings"

	"github.com/rbscript-lang/rbscript/pkg/iosink"
)

// memSink is an in-memory iosink.Sink used by this package's tests; it
// mirrors iosink.Console's text-only behaviour over buffers instead of
// stdio so tests can assert on captured output deterministically.
type memSink struct {
	out   strings.Builder
	in    *bufio.Reader
	lines []string
}

func newMemSink(input string) *memSink {
	return &memSink{in: bufio.NewReader(strings.NewReader(input))}
}

func (m *memSink) Print(s string)   { m.out.WriteString(s) }
func (m *memSink) Println(s string) { m.out.WriteString(s); m.out.WriteByte('\n') }
func (m *memSink) Newline()         { m.out.WriteByte('\n') }

func (m *memSink) Input() (string, error) {
	line, err := m.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (m *memSink) InputPrompt(prompt string) (string, error) {
	m.Print(prompt)
	return m.Input()
}

func (m *memSink) GraphicsMode(w, h int) error                { return iosink.ErrUnsupported }
func (m *memSink) TextMode() error                            { return nil }
func (m *memSink) ClearScreen() error                         { return nil }
func (m *memSink) SetColour(r, g, b int) error                { return nil }
func (m *memSink) DrawPixel(x, y int) error                   { return iosink.ErrUnsupported }
func (m *memSink) DrawLine(x1, y1, x2, y2 int) error          { return iosink.ErrUnsupported }
func (m *memSink) DrawRect(x, y, w, h int, filled bool) error { return iosink.ErrUnsupported }
func (m *memSink) DrawCircle(x, y, r int, filled bool) error  { return iosink.ErrUnsupported }
func (m *memSink) DrawText(x, y int, s string) error          { return iosink.ErrUnsupported }
func (m *memSink) RefreshScreen() error                       { return nil }
func (m *memSink) KeyPressed(name string) (bool, error)       { return false, iosink.ErrUnsupported }
func (m *memSink) MouseClicked() (bool, error)                { return false, iosink.ErrUnsupported }
func (m *memSink) GetMousePos() (int, int, error)             { return 0, 0, iosink.ErrUnsupported }
func (m *memSink) QuitRequested() (bool, error)               { return false, nil }
func (m *memSink) SleepMs(n int)                              {}
func (m *memSink) GetTicks() int64                            { return 0 }
func (m *memSink) Close() error                                { return nil }

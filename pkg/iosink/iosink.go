// Package iosink defines the I/O sink external collaborator: the
// interpreter only consumes this interface; console, graphics, and
// future backends implement it independently.
package iosink

import "errors"

// ErrUnsupported is returned by adapter methods that have no backing
// implementation (e.g. graphics calls on the console adapter).
var ErrUnsupported = errors.New("iosink: operation not supported by this adapter")

// Sink is the I/O external collaborator interface.
type Sink interface {
	Print(s string)
	Println(s string)
	Newline()
	Input() (string, error)
	InputPrompt(prompt string) (string, error)

	GraphicsMode(w, h int) error
	TextMode() error
	ClearScreen() error
	SetColour(r, g, b int) error
	DrawPixel(x, y int) error
	DrawLine(x1, y1, x2, y2 int) error
	DrawRect(x, y, w, h int, filled bool) error
	DrawCircle(x, y, r int, filled bool) error
	DrawText(x, y int, s string) error
	RefreshScreen() error

	KeyPressed(name string) (bool, error)
	MouseClicked() (bool, error)
	GetMousePos() (x, y int, err error)
	QuitRequested() (bool, error)
	SleepMs(n int)
	GetTicks() int64

	Close() error
}

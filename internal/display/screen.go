// Package display holds the remote's frame model: what is drawn, not how.
package display

// Line is one body row.
type Line struct {
	Text      string
	Highlight bool
}

// Screen is a 320x240-style layout reduced to text: a title bar, body
// rows, centred status lines and three soft-key labels under the
// buttons. Every change bumps Version so a renderer can tell a redraw
// happened.
type Screen struct {
	title   string
	lines   []Line
	status  []string
	keys    [3]string
	version uint64
}

// New returns a blank screen.
func New() *Screen { return &Screen{} }

// Clear blanks the whole screen.
func (s *Screen) Clear() {
	s.title = ""
	s.lines = nil
	s.status = nil
	s.keys = [3]string{}
	s.version++
}

// SetTitle sets the title bar text.
func (s *Screen) SetTitle(text string) {
	s.title = text
	s.version++
}

// AddLine appends a body row.
func (s *Screen) AddLine(text string, highlight bool) {
	s.lines = append(s.lines, Line{Text: text, Highlight: highlight})
	s.version++
}

// SetStatus replaces the centred status lines with text.
func (s *Screen) SetStatus(text string) {
	s.status = []string{text}
	s.version++
}

// AddStatus appends a centred status line below the existing ones.
func (s *Screen) AddStatus(text string) {
	s.status = append(s.status, text)
	s.version++
}

// SetKeys labels the three soft keys, left to right.
func (s *Screen) SetKeys(a, b, c string) {
	s.keys = [3]string{a, b, c}
	s.version++
}

func (s *Screen) Title() string { return s.title }

// Lines returns a copy of the body rows.
func (s *Screen) Lines() []Line { return append([]Line(nil), s.lines...) }

// Status returns a copy of the status lines.
func (s *Screen) Status() []string { return append([]string(nil), s.status...) }

func (s *Screen) Keys() [3]string { return s.keys }

func (s *Screen) Version() uint64 { return s.version }

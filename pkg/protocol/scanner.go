// Package protocol reads the tagged directives embedded in model responses
// and dispatches them.
//
// The tags are a wire contract with the model:
//
//	[exec]<command>[/exec]
//	[edit]<json payload>[/edit]
//	[writefile(<path>)]<content>[/writefile]
package protocol

import "strings"

const (
	execOpen       = "[exec]"
	execClose      = "[/exec]"
	editOpen       = "[edit]"
	editClose      = "[/edit]"
	writeFileOpen  = "[writefile("
	writeFilePath  = ")]"
	writeFileClose = "[/writefile]"
)

type DirectiveKind int

const (
	DirectiveExec DirectiveKind = iota
	DirectiveEdit
	DirectiveWriteFile
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveExec:
		return "exec"
	case DirectiveEdit:
		return "edit"
	case DirectiveWriteFile:
		return "writefile"
	}
	return "unknown"
}

var openMarkers = [...]string{
	DirectiveExec:      execOpen,
	DirectiveEdit:      editOpen,
	DirectiveWriteFile: writeFileOpen,
}

// Directive is one complete tag. Start and End delimit it in the response.
type Directive struct {
	Kind DirectiveKind

	Command string // exec
	Payload string // edit, whitespace-trimmed
	Path    string // writefile
	Content string // writefile

	Start, End int
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenText
	TokenDirective
	// TokenMalformed is an opening tag without its closer. It is always
	// the last token.
	TokenMalformed
)

type Token struct {
	Kind TokenKind
	Text string
	// Tail marks the text after the last directive.
	Tail      bool
	Directive Directive
}

const (
	markerUnknown = -2
	markerAbsent  = -1
)

// Scanner tokenizes a response in one left-to-right pass. For each opening
// marker it caches the offset of its next occurrence and only searches
// again once the cursor has moved past it.
type Scanner struct {
	src  string
	pos  int
	next [len(openMarkers)]int
	done bool
}

func NewScanner(response string) *Scanner {
	s := &Scanner{src: response}
	for i := range s.next {
		s.next[i] = markerUnknown
	}
	return s
}

// offset returns how far into the response the scanner has consumed.
func (s *Scanner) offset() int { return s.pos }

func (s *Scanner) nextMarker() (DirectiveKind, int) {
	kind, start := DirectiveKind(-1), markerAbsent
	for i, marker := range openMarkers {
		if s.next[i] != markerAbsent && s.next[i] < s.pos {
			if idx := strings.Index(s.src[s.pos:], marker); idx >= 0 {
				s.next[i] = s.pos + idx
			} else {
				s.next[i] = markerAbsent
			}
		}
		if s.next[i] >= 0 && (start < 0 || s.next[i] < start) {
			kind, start = DirectiveKind(i), s.next[i]
		}
	}
	return kind, start
}

// Next returns the next token, or a TokenEOF token once the response is
// consumed or a malformed tag was reached.
func (s *Scanner) Next() Token {
	if s.done {
		return Token{Kind: TokenEOF}
	}

	kind, start := s.nextMarker()
	if start < 0 {
		s.done = true
		if s.pos >= len(s.src) {
			return Token{Kind: TokenEOF}
		}
		text := s.src[s.pos:]
		s.pos = len(s.src)
		return Token{Kind: TokenText, Text: text, Tail: true}
	}

	if start > s.pos {
		text := s.src[s.pos:start]
		s.pos = start
		return Token{Kind: TokenText, Text: text}
	}

	d, ok := s.directive(kind, start)
	if !ok {
		s.done = true
		return Token{Kind: TokenMalformed, Directive: Directive{Kind: kind, Start: start, End: len(s.src)}}
	}
	s.pos = d.End
	return Token{Kind: TokenDirective, Directive: d}
}

func (s *Scanner) directive(kind DirectiveKind, start int) (Directive, bool) {
	body := start + len(openMarkers[kind])
	d := Directive{Kind: kind, Start: start}

	switch kind {
	case DirectiveExec:
		end := indexFrom(s.src, execClose, body)
		if end < 0 {
			return d, false
		}
		d.Command = s.src[body:end]
		d.End = end + len(execClose)

	case DirectiveEdit:
		end := indexFrom(s.src, editClose, body)
		if end < 0 {
			return d, false
		}
		d.Payload = strings.TrimSpace(s.src[body:end])
		d.End = end + len(editClose)

	case DirectiveWriteFile:
		pathEnd := indexFrom(s.src, writeFilePath, body)
		if pathEnd < 0 {
			return d, false
		}
		contentStart := pathEnd + len(writeFilePath)
		end := indexFrom(s.src, writeFileClose, contentStart)
		if end < 0 {
			return d, false
		}
		d.Path = s.src[body:pathEnd]
		d.Content = s.src[contentStart:end]
		d.End = end + len(writeFileClose)
	}
	return d, true
}

func indexFrom(s, substr string, from int) int {
	if idx := strings.Index(s[from:], substr); idx >= 0 {
		return from + idx
	}
	return -1
}

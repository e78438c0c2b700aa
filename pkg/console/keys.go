package console

import (
	"bufio"
	"strings"
)

type keyKind int

const (
	keyIgnored keyKind = iota
	keyInsert
	keyEnter
	keyNewline
	keyBackspace
	keyDelete
	keyInterrupt
	keyEscape
	keyEOF
	keySuspend
	keyHome
	keyEnd
	keyLeft
	keyRight
	keyUp
	keyDown
	keyWordLeft
	keyWordRight
	keyDeleteWord
	keyKillToStart
	keyToggleLog
)

// key is one decoded keystroke. b is set for keyInsert.
type key struct {
	kind keyKind
	b    byte
}

// Control bytes understood by the editor.
const (
	ctrlA     = 0x01
	ctrlC     = 0x03
	ctrlD     = 0x04
	ctrlE     = 0x05
	ctrlF     = 0x06
	ctrlH     = 0x08
	ctrlU     = 0x15
	ctrlW     = 0x17
	ctrlZ     = 0x1a
	escape    = 0x1b
	backspace = 0x7f
)

// maxCSIParam bounds how many parameter bytes are kept from one sequence.
const maxCSIParam = 16

// keyReader turns raw bytes into keys. ready reports whether another byte
// can be read without blocking; it decides whether an ESC stands alone.
type keyReader struct {
	r     *bufio.Reader
	ready func() bool
}

func (k *keyReader) available() bool {
	if k.r.Buffered() > 0 {
		return true
	}
	return k.ready != nil && k.ready()
}

func (k *keyReader) next() (key, error) {
	c, err := k.r.ReadByte()
	if err != nil {
		return key{}, err
	}

	switch c {
	case '\r', '\n':
		return key{kind: keyEnter}, nil
	case backspace, ctrlH:
		return key{kind: keyBackspace}, nil
	case ctrlC:
		return key{kind: keyInterrupt}, nil
	case ctrlD:
		return key{kind: keyEOF}, nil
	case ctrlA:
		return key{kind: keyHome}, nil
	case ctrlE:
		return key{kind: keyEnd}, nil
	case ctrlF:
		return key{kind: keyToggleLog}, nil
	case ctrlU:
		return key{kind: keyKillToStart}, nil
	case ctrlW:
		return key{kind: keyDeleteWord}, nil
	case ctrlZ:
		return key{kind: keySuspend}, nil
	case escape:
		return k.escapeSequence()
	}

	if c >= 32 && c <= 126 {
		return key{kind: keyInsert, b: c}, nil
	}
	return key{kind: keyIgnored}, nil
}

func (k *keyReader) escapeSequence() (key, error) {
	if !k.available() {
		return key{kind: keyEscape}, nil
	}
	c2, err := k.r.ReadByte()
	if err != nil {
		return key{kind: keyEscape}, nil
	}

	switch c2 {
	case '[', 'O':
		return k.csi()
	case 'b':
		return key{kind: keyWordLeft}, nil
	case 'f':
		return key{kind: keyWordRight}, nil
	case '\r', '\n':
		return key{kind: keyNewline}, nil
	}
	return key{kind: keyIgnored}, nil
}

// csi decodes the rest of a CSI or SS3 sequence. Parameter and intermediate
// bytes are collected up to the final byte (0x40-0x7e); anything else ends
// the sequence early and is left unread for the next key.
func (k *keyReader) csi() (key, error) {
	var param []byte
	for {
		c, err := k.r.ReadByte()
		if err != nil {
			return key{}, err
		}
		switch {
		case c >= 0x40 && c <= 0x7e:
			return csiKey(string(param), c), nil
		case c >= 0x20 && c <= 0x3f:
			if len(param) < maxCSIParam {
				param = append(param, c)
			}
		default:
			if err := k.r.UnreadByte(); err != nil {
				return key{}, err
			}
			return key{kind: keyIgnored}, nil
		}
	}
}

// csiKey maps a complete sequence to a key. For letter-final sequences the
// second parameter is the xterm modifier; Ctrl (5) and Alt (3) turn the
// horizontal arrows into word moves.
func csiKey(param string, final byte) key {
	if final == '~' {
		first, _, _ := strings.Cut(param, ";")
		switch first {
		case "1":
			return key{kind: keyHome}
		case "4", "7":
			return key{kind: keyEnd}
		case "3":
			return key{kind: keyDelete}
		}
		return key{kind: keyIgnored}
	}

	_, modifier, _ := strings.Cut(param, ";")
	word := modifier == "5" || modifier == "3"
	switch final {
	case 'A':
		return key{kind: keyUp}
	case 'B':
		return key{kind: keyDown}
	case 'C':
		if word {
			return key{kind: keyWordRight}
		}
		return key{kind: keyRight}
	case 'D':
		if word {
			return key{kind: keyWordLeft}
		}
		return key{kind: keyLeft}
	case 'H':
		return key{kind: keyHome}
	case 'F':
		return key{kind: keyEnd}
	}
	return key{kind: keyIgnored}
}

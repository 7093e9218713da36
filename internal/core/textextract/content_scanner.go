package textextract

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf16"
)

// TJ offsets more negative than this (thousandths of text space) read as a word gap.
const tjSpaceThreshold = -200

type operand struct {
	str   []byte
	num   float64
	arr   []operand
	isStr bool
	isNum bool
	isArr bool
}

type contentScanner struct {
	buf []byte
	pos int
}

// scanTextOperators extracts the strings shown by Tj, TJ, ' and " and turns
// T*, Td/TD with a vertical move, Tm and ET into line breaks.
func scanTextOperators(content []byte) string {
	s := &contentScanner{buf: content}
	var out lineWriter
	var stack []operand
	var open [][]operand

	push := func(o operand) {
		if n := len(open); n > 0 {
			open[n-1] = append(open[n-1], o)
			return
		}
		stack = append(stack, o)
	}

	for {
		s.skipSpace()
		if s.pos >= len(s.buf) {
			break
		}
		c := s.buf[s.pos]
		switch {
		case c == '%':
			s.skipComment()
		case c == '(':
			push(operand{str: s.literal(), isStr: true})
		case c == '<':
			if s.pos+1 < len(s.buf) && s.buf[s.pos+1] == '<' {
				s.pos += 2
				continue
			}
			push(operand{str: s.hex(), isStr: true})
		case c == '>' || c == '{' || c == '}' || c == ')':
			s.pos++
		case c == '[':
			s.pos++
			open = append(open, nil)
		case c == ']':
			s.pos++
			if n := len(open); n > 0 {
				arr := open[n-1]
				open = open[:n-1]
				push(operand{arr: arr, isArr: true})
			}
		case c == '/':
			s.pos++
			s.word()
			push(operand{})
		case strings.IndexByte("0123456789+-.", c) >= 0:
			w := s.word()
			if f, err := strconv.ParseFloat(w, 64); err == nil {
				push(operand{num: f, isNum: true})
			} else {
				push(operand{})
			}
		default:
			op := s.word()
			if op == "" {
				s.pos++
				continue
			}
			if op == "ID" {
				s.skipInlineImage()
			} else {
				out.apply(op, stack)
			}
			stack = stack[:0]
			open = open[:0]
		}
	}
	return strings.Trim(out.String(), "\n")
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (s *contentScanner) skipSpace() {
	for s.pos < len(s.buf) && isSpace(s.buf[s.pos]) {
		s.pos++
	}
}

func (s *contentScanner) skipComment() {
	for s.pos < len(s.buf) && s.buf[s.pos] != '\n' && s.buf[s.pos] != '\r' {
		s.pos++
	}
}

func (s *contentScanner) word() string {
	start := s.pos
	for s.pos < len(s.buf) && !isSpace(s.buf[s.pos]) && !isDelimiter(s.buf[s.pos]) {
		s.pos++
	}
	return string(s.buf[start:s.pos])
}

// literal reads a (...) string starting at the opening paren.
func (s *contentScanner) literal() []byte {
	s.pos++
	depth := 1
	var b []byte
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.buf) {
				return b
			}
			e := s.buf[s.pos]
			s.pos++
			switch e {
			case 'n':
				b = append(b, '\n')
			case 'r':
				b = append(b, '\r')
			case 't':
				b = append(b, '\t')
			case 'b':
				b = append(b, '\b')
			case 'f':
				b = append(b, '\f')
			case '\r':
				if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for i := 0; i < 2 && s.pos < len(s.buf) && s.buf[s.pos] >= '0' && s.buf[s.pos] <= '7'; i++ {
					v = v*8 + int(s.buf[s.pos]-'0')
					s.pos++
				}
				b = append(b, byte(v))
			default:
				b = append(b, e)
			}
		case '(':
			depth++
			b = append(b, c)
		case ')':
			depth--
			if depth == 0 {
				return b
			}
			b = append(b, c)
		default:
			b = append(b, c)
		}
	}
	return b
}

// hex reads a <...> string starting at the opening bracket.
func (s *contentScanner) hex() []byte {
	s.pos++
	var digits []byte
	for s.pos < len(s.buf) && s.buf[s.pos] != '>' {
		c := s.buf[s.pos]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, _ := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		out = append(out, byte(v))
	}
	return out
}

// skipInlineImage moves past the binary payload that follows ID, up to EI.
func (s *contentScanner) skipInlineImage() {
	for s.pos < len(s.buf) {
		i := bytes.Index(s.buf[s.pos:], []byte("EI"))
		if i < 0 {
			s.pos = len(s.buf)
			return
		}
		at := s.pos + i
		s.pos = at + 2
		before := at == 0 || isSpace(s.buf[at-1])
		after := s.pos >= len(s.buf) || isSpace(s.buf[s.pos])
		if before && after {
			return
		}
	}
}

type lineWriter struct {
	strings.Builder
}

func (w *lineWriter) newline() {
	if w.Len() == 0 {
		return
	}
	s := w.String()
	if s[len(s)-1] != '\n' {
		w.WriteByte('\n')
	}
}

func (w *lineWriter) show(b []byte) {
	w.WriteString(decodeShown(b))
}

func (w *lineWriter) apply(op string, operands []operand) {
	last := func() (operand, bool) {
		if len(operands) == 0 {
			return operand{}, false
		}
		return operands[len(operands)-1], true
	}
	switch op {
	case "Tj":
		if o, ok := last(); ok && o.isStr {
			w.show(o.str)
		}
	case "'", "\"":
		w.newline()
		if o, ok := last(); ok && o.isStr {
			w.show(o.str)
		}
	case "TJ":
		if o, ok := last(); ok && o.isArr {
			for _, e := range o.arr {
				switch {
				case e.isStr:
					w.show(e.str)
				case e.isNum && e.num < tjSpaceThreshold:
					w.WriteByte(' ')
				}
			}
		}
	case "T*", "Tm", "ET":
		w.newline()
	case "Td", "TD":
		if o, ok := last(); ok && o.isNum && o.num != 0 {
			w.newline()
		}
	}
}

// decodeShown handles UTF-16BE strings with a BOM; everything else is read as
// single-byte text with control bytes dropped.
func decodeShown(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, len(b)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	for _, c := range b {
		if c == '\t' || (c >= 0x20 && c != 0x7f) {
			sb.WriteRune(rune(c))
		}
	}
	return sb.String()
}

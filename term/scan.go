package term

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/reoring/aspskema/domain"
)

// TokenKind classifies scanner tokens.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokVariable
	TokNumber
	TokString
	TokPunct
)

// Token is one lexical unit with its position (1-based).
type Token struct {
	Kind TokenKind
	Text string
	Num  int64
	Line int
	Col  int
}

func (t Token) String() string {
	if t.Kind == TokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

// SyntaxError reports malformed engine text.
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg) }

// Scanner splits engine text into tokens. '%' starts a line comment and
// '%*' ... '*%' a block comment.
type Scanner struct {
	src       []rune
	pos       int
	line, col int
	peeked    *Token
}

func NewScanner(text string) *Scanner { return &Scanner{src: []rune(text), line: 1, col: 1} }

func (s *Scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *Scanner) at(off int) rune {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *Scanner) skip() error {
	for s.pos < len(s.src) {
		r := s.at(0)
		switch {
		case unicode.IsSpace(r):
			s.advance()
		case r == '%' && s.at(1) == '*':
			line, col := s.line, s.col
			s.advance()
			s.advance()
			for {
				if s.pos >= len(s.src) {
					return &SyntaxError{Line: line, Col: col, Msg: "unterminated block comment"}
				}
				if s.at(0) == '*' && s.at(1) == '%' {
					s.advance()
					s.advance()
					break
				}
				s.advance()
			}
		case r == '%':
			for s.pos < len(s.src) && s.at(0) != '\n' {
				s.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (Token, error) {
	if s.peeked != nil {
		return *s.peeked, nil
	}
	tok, err := s.scan()
	if err != nil {
		return Token{}, err
	}
	s.peeked = &tok
	return tok, nil
}

// Next consumes the next token.
func (s *Scanner) Next() (Token, error) {
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil
		return tok, nil
	}
	return s.scan()
}

// Accept consumes the next token when it is the punctuation p.
func (s *Scanner) Accept(p string) (bool, error) {
	tok, err := s.Peek()
	if err != nil {
		return false, err
	}
	if tok.Kind == TokPunct && tok.Text == p {
		s.peeked = nil
		return true, nil
	}
	return false, nil
}

// Expect consumes the punctuation p or fails.
func (s *Scanner) Expect(p string) error {
	tok, err := s.Next()
	if err != nil {
		return err
	}
	if tok.Kind != TokPunct || tok.Text != p {
		return s.Errorf(tok, "expected %q, found %s", p, tok)
	}
	return nil
}

// Errorf builds a SyntaxError located at tok.
func (s *Scanner) Errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

var puncts = []string{":-", "==", "!=", "<=", ">=", "(", ")", ",", ";", ".", "@", "<", ">", "="}

func (s *Scanner) scan() (Token, error) {
	if err := s.skip(); err != nil {
		return Token{}, err
	}
	tok := Token{Line: s.line, Col: s.col}
	if s.pos >= len(s.src) {
		tok.Kind = TokEOF
		return tok, nil
	}
	r := s.at(0)
	switch {
	case unicode.IsDigit(r) || (r == '-' && unicode.IsDigit(s.at(1))):
		b := &strings.Builder{}
		b.WriteRune(s.advance())
		for unicode.IsDigit(s.at(0)) {
			b.WriteRune(s.advance())
		}
		n, err := domain.ParseInt(b.String())
		if err != nil {
			return Token{}, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: err.Error()}
		}
		tok.Kind, tok.Text, tok.Num = TokNumber, b.String(), n
		return tok, nil
	case r == '"':
		s.advance()
		b := &strings.Builder{}
		for {
			if s.pos >= len(s.src) || s.at(0) == '\n' {
				return Token{}, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: "unterminated string"}
			}
			c := s.advance()
			if c == '"' {
				break
			}
			if c == '\\' && s.pos < len(s.src) {
				switch e := s.advance(); e {
				case 'n':
					b.WriteRune('\n')
				default:
					b.WriteRune(e)
				}
				continue
			}
			b.WriteRune(c)
		}
		tok.Kind, tok.Text = TokString, b.String()
		return tok, nil
	case r == '_' || unicode.IsLetter(r):
		b := &strings.Builder{}
		for s.pos < len(s.src) && (s.at(0) == '_' || unicode.IsLetter(s.at(0)) || unicode.IsDigit(s.at(0))) {
			b.WriteRune(s.advance())
		}
		tok.Text = b.String()
		first := strings.TrimLeft(tok.Text, "_")
		if first == "" || unicode.IsUpper(rune(first[0])) {
			tok.Kind = TokVariable
		} else {
			tok.Kind = TokIdent
		}
		return tok, nil
	}
	for _, p := range puncts {
		if s.hasPrefix(p) {
			for range p {
				s.advance()
			}
			tok.Kind, tok.Text = TokPunct, p
			return tok, nil
		}
	}
	return Token{}, &SyntaxError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func (s *Scanner) hasPrefix(p string) bool {
	for i, r := range p {
		if s.at(i) != r {
			return false
		}
	}
	return true
}

package engine

import (
	"fmt"
	"strings"

	"github.com/reoring/aspskema/rules"
	"github.com/reoring/aspskema/term"
)

// Expr is a term or a callable application @name(args).
type Expr struct {
	Term term.Term
	Call string
	Args []term.Term
}

func (e Expr) String() string {
	if e.Call == "" {
		return e.Term.String()
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return "@" + e.Call + "(" + strings.Join(args, ",") + ")"
}

// Literal is either a positive atom or a comparison between two expressions.
type Literal struct {
	Atom        *term.Term
	Left, Right Expr
	Op          rules.Op
}

func (l Literal) String() string {
	if l.Atom != nil {
		return l.Atom.String()
	}
	return l.Left.String() + " " + l.Op.String() + " " + l.Right.String()
}

// Clause is a fact, a rule, or an integrity constraint (no head).
type Clause struct {
	Head *term.Term
	Body []Literal
	Line int
}

func (c Clause) IsConstraint() bool { return c.Head == nil }

func (c Clause) IsFact() bool { return c.Head != nil && len(c.Body) == 0 }

func (c Clause) String() string {
	b := &strings.Builder{}
	if c.Head != nil {
		b.WriteString(c.Head.String())
		if len(c.Body) > 0 {
			b.WriteString(" ")
		}
	}
	if len(c.Body) > 0 {
		b.WriteString(":- ")
		for i, l := range c.Body {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(l.String())
		}
	}
	b.WriteString(".")
	return b.String()
}

// ParseProgram reads facts, positive rules and integrity constraints.
// Body literals are separated by ',' or ';'.
func ParseProgram(text string) ([]Clause, error) {
	s := term.NewScanner(text)
	var out []Clause
	for {
		tok, err := s.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == term.TokEOF {
			return out, nil
		}
		c, err := parseClause(s)
		if err != nil {
			return nil, err
		}
		c.Line = tok.Line
		if err := checkSafety(c); err != nil {
			return nil, s.Errorf(tok, "%v", err)
		}
		out = append(out, c)
	}
}

func parseClause(s *term.Scanner) (Clause, error) {
	var c Clause
	neck, err := s.Accept(":-")
	if err != nil {
		return c, err
	}
	if !neck {
		tok, _ := s.Peek()
		head, err := s.ParseTerm()
		if err != nil {
			return c, err
		}
		if !isAtom(head) {
			return c, s.Errorf(tok, "%s is not an atom", head)
		}
		c.Head = &head
		if ok, err := s.Accept("."); err != nil || ok {
			return c, err
		}
		if err := s.Expect(":-"); err != nil {
			return c, err
		}
	}
	for {
		l, err := parseLiteral(s)
		if err != nil {
			return c, err
		}
		c.Body = append(c.Body, l)
		tok, err := s.Next()
		if err != nil {
			return c, err
		}
		if tok.Kind == term.TokPunct {
			switch tok.Text {
			case ".":
				return c, nil
			case ",", ";":
				continue
			}
		}
		return c, s.Errorf(tok, "unexpected %s in clause body", tok)
	}
}

func parseLiteral(s *term.Scanner) (Literal, error) {
	tok, err := s.Peek()
	if err != nil {
		return Literal{}, err
	}
	if tok.Kind == term.TokIdent && tok.Text == "not" {
		return Literal{}, s.Errorf(tok, "negation is not supported")
	}
	left, err := parseExpr(s)
	if err != nil {
		return Literal{}, err
	}
	next, err := s.Peek()
	if err != nil {
		return Literal{}, err
	}
	if next.Kind == term.TokPunct {
		if op, err := rules.ParseOp(next.Text); err == nil {
			_, _ = s.Next()
			right, err := parseExpr(s)
			if err != nil {
				return Literal{}, err
			}
			return Literal{Left: left, Op: op, Right: right}, nil
		}
	}
	if left.Call != "" || !isAtom(left.Term) {
		return Literal{}, s.Errorf(tok, "%s is not an atom", left)
	}
	return Literal{Atom: &left.Term}, nil
}

func parseExpr(s *term.Scanner) (Expr, error) {
	at, err := s.Accept("@")
	if err != nil {
		return Expr{}, err
	}
	if !at {
		t, err := s.ParseTerm()
		return Expr{Term: t}, err
	}
	tok, err := s.Peek()
	if err != nil {
		return Expr{}, err
	}
	fn, err := s.ParseTerm()
	if err != nil {
		return Expr{}, err
	}
	if fn.Type() != term.TypeFunction || fn.IsTuple() {
		return Expr{}, s.Errorf(tok, "expected a callable name after @")
	}
	return Expr{Call: fn.Name(), Args: fn.Args()}, nil
}

func isAtom(t term.Term) bool { return t.Type() == term.TypeFunction && !t.IsTuple() }

// checkSafety requires every variable of the head and of the comparisons to
// occur in a body atom.
func checkSafety(c Clause) error {
	bound := map[string]bool{}
	for _, l := range c.Body {
		if l.Atom != nil {
			collectVars(*l.Atom, bound)
		}
	}
	var used []term.Term
	if c.Head != nil {
		used = append(used, *c.Head)
	}
	for _, l := range c.Body {
		if l.Atom == nil {
			used = append(used, l.Left.Term, l.Right.Term)
			used = append(used, l.Left.Args...)
			used = append(used, l.Right.Args...)
		}
	}
	for _, t := range used {
		vars := map[string]bool{}
		collectVars(t, vars)
		for v := range vars {
			if !bound[v] || v == "_" {
				return fmt.Errorf("unsafe variable %s", v)
			}
		}
	}
	return nil
}

func collectVars(t term.Term, into map[string]bool) {
	switch t.Type() {
	case term.TypeVariable:
		into[t.Name()] = true
	case term.TypeFunction:
		for _, a := range t.Args() {
			collectVars(a, into)
		}
	}
}

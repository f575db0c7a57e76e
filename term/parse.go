package term

// Parse reads a single term, e.g. `point(1,"a",(b,c))`.
func Parse(text string) (Term, error) {
	s := NewScanner(text)
	t, err := s.ParseTerm()
	if err != nil {
		return Term{}, err
	}
	tok, err := s.Next()
	if err != nil {
		return Term{}, err
	}
	if tok.Kind != TokEOF {
		return Term{}, s.Errorf(tok, "unexpected %s after term", tok)
	}
	return t, nil
}

// MustParse is Parse for literals known to be valid; it panics on error.
func MustParse(text string) Term {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTerm reads one term at the current position.
func (s *Scanner) ParseTerm() (Term, error) {
	tok, err := s.Next()
	if err != nil {
		return Term{}, err
	}
	switch tok.Kind {
	case TokNumber:
		return Number(tok.Num), nil
	case TokString:
		return String(tok.Text), nil
	case TokVariable:
		return Variable(tok.Text), nil
	case TokIdent:
		ok, err := s.Accept("(")
		if err != nil {
			return Term{}, err
		}
		if !ok {
			return Function(tok.Text), nil
		}
		args, _, err := s.parseArgs()
		if err != nil {
			return Term{}, err
		}
		return Function(tok.Text, args...), nil
	case TokPunct:
		if tok.Text == "(" {
			args, trailing, err := s.parseArgs()
			if err != nil {
				return Term{}, err
			}
			if len(args) == 1 && !trailing {
				return args[0], nil
			}
			return Tuple(args...), nil
		}
	}
	return Term{}, s.Errorf(tok, "unexpected %s, expecting a term", tok)
}

// parseArgs reads comma-separated terms up to ')' (already past '(').
// trailing reports a comma right before ')'.
func (s *Scanner) parseArgs() (args []Term, trailing bool, err error) {
	if ok, err := s.Accept(")"); err != nil || ok {
		return nil, false, err
	}
	for {
		t, err := s.ParseTerm()
		if err != nil {
			return nil, false, err
		}
		args = append(args, t)
		ok, err := s.Accept(",")
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return args, false, s.Expect(")")
		}
		if ok, err := s.Accept(")"); err != nil || ok {
			return args, true, err
		}
	}
}

package specifier

// scanner walks src one token at a time. regexOK records whether a '/' at
// the current position would start a regular expression literal; lastTok is
// the last significant byte consumed and is used to tell `x.import` apart
// from an import statement.
//
// parens has one entry per open '(' and is true when the parenthesis holds
// the head of an if, while, for or with statement, after which a '/' starts
// a regex. templates has one entry per open ${ substitution, holding the
// depth of '{' nested inside it.
type scanner struct {
	src       string
	pos       int
	regexOK   bool
	lastTok   byte
	lastWord  string
	parens    []bool
	templates []int
}

// controlKeywords introduce a parenthesized head followed by a statement.
var controlKeywords = map[string]bool{
	"if":    true,
	"while": true,
	"for":   true,
	"with":  true,
}

// regexKeywords are the keywords after which '/' starts a regex literal.
var regexKeywords = map[string]bool{
	"return":     true,
	"typeof":     true,
	"instanceof": true,
	"in":         true,
	"of":         true,
	"new":        true,
	"delete":     true,
	"void":       true,
	"throw":      true,
	"case":       true,
	"default":    true,
	"do":         true,
	"else":       true,
	"yield":      true,
	"await":      true,
}

func (s *scanner) next() (Match, bool, error) {
	if s.pos == 0 && len(s.src) > 1 && s.src[0] == '#' && s.src[1] == '!' {
		s.pos = skipLineComment(s.src, 0)
	}

	n := len(s.src)
	for s.pos < n {
		c := s.src[s.pos]
		switch {
		case isWhiteSpace(c):
			s.pos++

		case c == '/':
			switch {
			case s.pos+1 < n && s.src[s.pos+1] == '/':
				s.pos = skipLineComment(s.src, s.pos)
			case s.pos+1 < n && s.src[s.pos+1] == '*':
				s.pos = skipBlockComment(s.src, s.pos)
			case s.regexOK:
				s.pos = skipRegex(s.src, s.pos)
				s.lastTok, s.regexOK = '/', false
			default:
				s.pos++
				s.lastTok, s.regexOK = '/', true
			}

		case isQuote(c):
			s.pos = skipString(s.src, s.pos)
			s.lastTok, s.regexOK = c, false

		case c == '`':
			s.pos++
			s.templateText()

		case c == '(':
			s.parens = append(s.parens, s.lastTok == 'a' && controlKeywords[s.lastWord])
			s.pos++
			s.lastTok, s.regexOK = c, true

		case c == ')':
			head := false
			if n := len(s.parens); n > 0 {
				head = s.parens[n-1]
				s.parens = s.parens[:n-1]
			}
			s.pos++
			s.lastTok, s.regexOK = c, head

		case c == '{' && len(s.templates) > 0:
			s.templates[len(s.templates)-1]++
			s.pos++
			s.lastTok, s.regexOK = c, true

		case c == '}' && len(s.templates) > 0:
			top := len(s.templates) - 1
			s.pos++
			if s.templates[top] > 0 {
				s.templates[top]--
				s.lastTok, s.regexOK = c, true
				continue
			}
			s.templates = s.templates[:top]
			s.templateText()

		case isIdentStart(c):
			start := s.pos
			s.pos = identEnd(s.src, s.pos)
			word := s.src[start:s.pos]
			member := s.lastTok == '.'
			s.lastTok, s.regexOK = 'a', regexKeywords[word]
			s.lastWord = word
			if member {
				s.lastWord = ""
				continue
			}

			var (
				m   Match
				ok  bool
				err error
			)
			switch word {
			case "import":
				m, ok, err = s.importStatement(start)
			case "export":
				m, ok, err = s.exportStatement(start)
			default:
				continue
			}
			if err != nil || ok {
				return m, ok, err
			}

		case isDigit(c):
			s.pos = identEnd(s.src, s.pos)
			s.lastTok, s.regexOK = '0', false

		default:
			s.pos++
			s.lastTok = c
			s.regexOK = c != ']'
		}
	}
	return Match{}, false, nil
}

// templateText consumes template literal text from s.pos up to the closing
// backtick, or up to a ${ whose expression is then scanned as code.
func (s *scanner) templateText() {
	src, n := s.src, len(s.src)
	i := s.pos
	for i < n {
		switch {
		case src[i] == '\\':
			i += 2
		case src[i] == '`':
			s.pos = i + 1
			s.lastTok, s.regexOK = '`', false
			return
		case src[i] == '$' && i+1 < n && src[i+1] == '{':
			s.templates = append(s.templates, 0)
			s.pos = i + 2
			s.lastTok, s.regexOK = '{', true
			return
		default:
			i++
		}
	}
	s.pos = n
}

// importStatement is called with s.pos just past an `import` keyword that
// starts at start.
func (s *scanner) importStatement(start int) (Match, bool, error) {
	src, n := s.src, len(s.src)

	j := skipSpacesAndComments(src, s.pos)
	if j >= n {
		return Match{}, false, malformed(start, Import, "unexpected end of input")
	}

	c := src[j]
	switch {
	case c == '(':
		k := skipSpacesAndComments(src, j+1)
		if k >= n || !isQuote(src[k]) {
			return Match{}, false, nil
		}
		end, ok := literalEnd(src, k)
		if !ok {
			return Match{}, false, nil
		}
		after := skipSpacesAndComments(src, end)
		if after >= n || (src[after] != ')' && src[after] != ',') {
			return Match{}, false, nil
		}
		// The call's closing ')' is still ahead.
		s.parens = append(s.parens, false)
		return s.literal(k, end, Dynamic), true, nil

	case isQuote(c):
		return s.literalAt(j, start, Import)

	case c == '{' || c == '*' || isIdentStart(c):
		k := j
		for {
			k = skipSpacesAndComments(src, k)
			if k >= n {
				return Match{}, false, malformed(start, Import, "unexpected end of input")
			}
			switch ch := src[k]; {
			case isQuote(ch):
				return s.literalAt(k, start, Import)
			case ch == '{':
				k = skipBraces(src, k)
				if k < 0 {
					return Match{}, false, malformed(start, Import, "unterminated import list")
				}
			case ch == '*' || ch == ',':
				k++
			case isIdentStart(ch):
				k = identEnd(src, k)
			default:
				return Match{}, false, malformed(start, Import, "expected module specifier")
			}
		}
	}

	// import.meta, object keys and the like.
	return Match{}, false, nil
}

// exportStatement is called with s.pos just past an `export` keyword that
// starts at start. Only re-exports carry a specifier.
func (s *scanner) exportStatement(start int) (Match, bool, error) {
	src, n := s.src, len(s.src)

	j := skipSpacesAndComments(src, s.pos)
	if j >= n {
		return Match{}, false, nil
	}

	switch src[j] {
	case '*':
		k := skipSpacesAndComments(src, j+1)
		if wordAt(src, k) == "as" {
			k = skipSpacesAndComments(src, k+2)
			switch {
			case k < n && isQuote(src[k]):
				end, ok := literalEnd(src, k)
				if !ok {
					return Match{}, false, malformed(start, Export, "unterminated namespace name")
				}
				k = end
			case k < n && isIdentStart(src[k]):
				k = identEnd(src, k)
			default:
				return Match{}, false, malformed(start, Export, "expected namespace name")
			}
			k = skipSpacesAndComments(src, k)
		}
		return s.fromClause(k, start)

	case '{':
		k := skipBraces(src, j)
		if k < 0 {
			return Match{}, false, malformed(start, Export, "unterminated export list")
		}
		k = skipSpacesAndComments(src, k)
		if wordAt(src, k) != "from" {
			// Local export list, scanned as ordinary code.
			return Match{}, false, nil
		}
		return s.fromClause(k, start)
	}

	return Match{}, false, nil
}

// fromClause expects `from "<spec>"` at k.
func (s *scanner) fromClause(k, start int) (Match, bool, error) {
	if wordAt(s.src, k) != "from" {
		return Match{}, false, malformed(start, Export, "expected from clause")
	}
	k = skipSpacesAndComments(s.src, k+len("from"))
	if k >= len(s.src) || !isQuote(s.src[k]) {
		return Match{}, false, malformed(start, Export, "expected module specifier")
	}
	return s.literalAt(k, start, Export)
}

// literalAt consumes the string literal whose opening quote is at q.
func (s *scanner) literalAt(q, start int, kind Kind) (Match, bool, error) {
	end, ok := literalEnd(s.src, q)
	if !ok {
		return Match{}, false, malformed(start, kind, "unterminated module specifier")
	}
	return s.literal(q, end, kind), true, nil
}

func (s *scanner) literal(q, end int, kind Kind) Match {
	s.pos = end
	s.lastTok, s.regexOK = '"', false
	return Match{
		Raw:   s.src[q+1 : end-1],
		Start: q + 1,
		End:   end - 1,
		Kind:  kind,
	}
}

func malformed(offset int, kind Kind, reason string) error {
	return &MalformedError{Offset: offset, Kind: kind, Reason: reason}
}

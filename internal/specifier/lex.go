package specifier

func isWhiteSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isIdentStart accepts '#' so private names are consumed whole, and any
// non-ASCII byte as part of a Unicode identifier.
func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$' || c == '#' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func identEnd(src string, i int) int {
	for i < len(src) && isIdentChar(src[i]) {
		i++
	}
	return i
}

// wordAt returns the identifier starting at i, or "".
func wordAt(src string, i int) string {
	if i >= len(src) || !isIdentStart(src[i]) {
		return ""
	}
	return src[i:identEnd(src, i)]
}

func skipLineComment(src string, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(src string, i int) int {
	i += 2
	for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
		i++
	}
	if i+1 < len(src) {
		return i + 2
	}
	return len(src)
}

func skipSpacesAndComments(src string, i int) int {
	n := len(src)
	for i < n {
		switch {
		case isWhiteSpace(src[i]):
			i++
		case i+1 < n && src[i] == '/' && src[i+1] == '/':
			i = skipLineComment(src, i)
		case i+1 < n && src[i] == '/' && src[i+1] == '*':
			i = skipBlockComment(src, i)
		default:
			return i
		}
	}
	return i
}

// literalEnd returns the index just past the closing quote of the string
// literal opening at q. ok is false if the literal runs into a newline or
// the end of input.
func literalEnd(src string, q int) (end int, ok bool) {
	quote := src[q]
	i := q + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1, true
		case '\n':
			return i, false
		}
		i++
	}
	return len(src), false
}

func skipString(src string, q int) int {
	end, _ := literalEnd(src, q)
	return end
}

// skipTemplate skips a template literal opening at i, including any nested
// ${...} substitutions.
func skipTemplate(src string, i int) int {
	i++
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
		case src[i] == '`':
			return i + 1
		case src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			i = skipBraces(src, i+1)
			if i < 0 {
				return len(src)
			}
		default:
			i++
		}
	}
	return len(src)
}

// skipBraces returns the index just past the '}' matching the '{' at i, or
// -1 if there is none.
func skipBraces(src string, i int) int {
	depth := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			i++
			if depth == 0 {
				return i
			}
		case isQuote(c):
			i = skipString(src, i)
		case c == '`':
			i = skipTemplate(src, i)
		case c == '/' && i+1 < n && (src[i+1] == '/' || src[i+1] == '*'):
			i = skipSpacesAndComments(src, i)
		default:
			i++
		}
	}
	return -1
}

// skipRegex skips a regular expression literal opening at i, flags included.
// A literal that reaches a newline is not a regex; the scan resumes after
// the slash.
func skipRegex(src string, i int) int {
	start := i
	i++
	inClass := false
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return identEnd(src, i+1)
			}
		case '\n':
			return start + 1
		}
		i++
	}
	return start + 1
}

// SPDX-License-Identifier: MPL-2.0

package jsmod

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2/js"
)

// unquote decodes a JavaScript string literal. Bytes that are not a quoted
// literal are returned as is, which covers identifier aliases.
func unquote(lit []byte) string {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return string(lit)
	}
	s := string(lit[1 : len(lit)-1])
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'x':
			if r, ok := hexRune(s, i+1, i+3); ok {
				sb.WriteRune(r)
				i += 2
			} else {
				sb.WriteByte(c)
			}
		case 'u':
			r, next, ok := unicodeEscape(s, i+1)
			if !ok {
				sb.WriteByte(c)
				continue
			}
			// Combine surrogate pairs written as two escapes.
			if r >= 0xD800 && r < 0xDC00 && next+1 < len(s) && s[next] == '\\' && s[next+1] == 'u' {
				if lo, after, ok := unicodeEscape(s, next+2); ok && lo >= 0xDC00 && lo < 0xE000 {
					r = (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000
					next = after
				}
			}
			if !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			sb.WriteRune(r)
			i = next - 1
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func hexRune(s string, from, to int) (rune, bool) {
	if to > len(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s[from:to], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

// unicodeEscape decodes the digits of \uXXXX or \u{X...} starting at from and
// returns the index just past the escape.
func unicodeEscape(s string, from int) (rune, int, bool) {
	if from < len(s) && s[from] == '{' {
		end := strings.IndexByte(s[from:], '}')
		if end < 0 {
			return 0, 0, false
		}
		r, ok := hexRune(s, from+1, from+end)
		return r, from + end + 1, ok
	}
	r, ok := hexRune(s, from, from+4)
	return r, from + 4, ok
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

// member renders the property access obj.name, falling back to bracket
// syntax for names that are not identifiers.
func member(obj, name string) string {
	if js.AsIdentifierName([]byte(name)) {
		return obj + "." + name
	}
	return obj + "[" + quote(name) + "]"
}

// Package template renders prompt templates against a small variable set.
//
// The grammar is deliberately tiny: $name substitutes a variable, ${name}
// is the braced equivalent, and ${name:-default} substitutes a literal
// default when the variable is absent or empty. Anything the renderer does
// not recognize is emitted verbatim, so a template referencing a variable
// this version doesn't know about still renders instead of failing.
package template

// Render substitutes placeholders in tmpl using vars. It is total: any
// input string produces output, never an error. $$ escapes a literal $.
// Malformed ${...} groups (missing closing brace) are treated as literal
// text.
func Render(tmpl string, vars map[string]string) string {
	var out []byte
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		if c != '$' {
			out = append(out, c)
			i++
			continue
		}
		if i+1 >= len(tmpl) {
			out = append(out, '$')
			break
		}

		switch next := tmpl[i+1]; {
		case next == '$':
			out = append(out, '$')
			i += 2
		case next == '{':
			rendered, consumed, ok := renderBraced(tmpl[i:], vars)
			if !ok {
				// Unclosed group: the rest of the string is literal.
				out = append(out, tmpl[i:]...)
				return string(out)
			}
			out = append(out, rendered...)
			i += consumed
		default:
			rendered, consumed := renderBare(tmpl[i:], vars)
			out = append(out, rendered...)
			i += consumed
		}
	}
	return string(out)
}

// renderBraced handles a token starting with "${". It returns the rendered
// text, the number of input bytes consumed, and false when no closing brace
// exists.
func renderBraced(s string, vars map[string]string) (string, int, bool) {
	end := -1
	for j := 2; j < len(s); j++ {
		if s[j] == '}' {
			end = j
			break
		}
	}
	if end < 0 {
		return "", 0, false
	}

	raw := s[:end+1]
	body := s[2:end]

	name, def, hasDefault := cutDefault(body)
	if !validName(name) {
		return raw, end + 1, true
	}

	v, present := vars[name]
	if hasDefault {
		if !present || v == "" {
			return def, end + 1, true
		}
		return v, end + 1, true
	}
	if !present {
		return raw, end + 1, true
	}
	return v, end + 1, true
}

// renderBare handles a token starting with "$" followed by a name character.
func renderBare(s string, vars map[string]string) (string, int) {
	j := 1
	for j < len(s) && isNameByte(s[j], j > 1) {
		j++
	}
	if j == 1 {
		// "$" followed by something that can't start a name.
		return "$", 1
	}
	name := s[1:j]
	if v, present := vars[name]; present {
		return v, j
	}
	return s[:j], j
}

// cutDefault splits "name:-default" into its parts.
func cutDefault(body string) (name, def string, ok bool) {
	for i := 0; i+1 < len(body); i++ {
		if body[i] == ':' && body[i+1] == '-' {
			return body[:i], body[i+2:], true
		}
	}
	return body, "", false
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameByte(s[i], i > 0) {
			return false
		}
	}
	return true
}

func isNameByte(c byte, rest bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return rest
	default:
		return false
	}
}

package llm

import (
	"encoding/json"
	"strings"
)

// Zero-width characters models occasionally emit around code fences.
var zeroWidthReplacer = strings.NewReplacer(
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // byte order mark
)

// RepairJSON cleans a raw model fragment into parseable JSON when it can:
// strip fences and zero-width noise, slice to the outermost braces, then try
// progressively heavier repairs (trailing-comma removal, truncating the
// earliest unterminated element and re-closing open structures). When every
// repair fails it returns the cleaned string as-is; transient invalidity is
// expected mid-stream and downstream partial parsing tolerates it.
func RepairJSON(raw string) string {
	s := zeroWidthReplacer.Replace(raw)
	s = stripFences(s)
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		} else {
			s = s[i:]
		}
	}

	if json.Valid([]byte(s)) {
		return s
	}

	t := stripTrailingCommas(s)
	if json.Valid([]byte(t)) {
		return t
	}

	t = closeOpenStructures(t)
	if json.Valid([]byte(t)) {
		return t
	}

	return s
}

func stripFences(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// stripTrailingCommas removes commas that sit directly before a closing
// bracket or brace, outside of string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			b.WriteByte(ch)
			if esc {
				esc = false
			} else if ch == '\\' {
				esc = true
			} else if ch == '"' {
				inStr = false
			}
			continue
		}
		if ch == '"' {
			inStr = true
			b.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// scanOpen walks s outside repairs and reports the still-open structural
// stack, whether the scan ended inside a string literal, and where that
// literal started.
func scanOpen(s string) (stack []byte, inStr bool, strStart int) {
	esc := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			if esc {
				esc = false
			} else if ch == '\\' {
				esc = true
			} else if ch == '"' {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
			strStart = i
		case '{', '[':
			stack = append(stack, ch)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack, inStr, strStart
}

// closeOpenStructures truncates s at the earliest unterminated element (an
// unclosed string literal, a dangling key or comma) and appends the closers
// for whatever braces and brackets remain open.
func closeOpenStructures(s string) string {
	stack, inStr, strStart := scanOpen(s)
	if inStr {
		s = s[:strStart]
		s = trimDangling(s)
		stack, _, _ = scanOpen(s)
	} else {
		s = trimDangling(s)
		stack, _, _ = scanOpen(s)
	}

	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			s += "}"
		case '[':
			s += "]"
		}
	}
	return s
}

// trimDangling drops a trailing comma, or a trailing object key that never
// received a value ("key": or a bare "key").
func trimDangling(s string) string {
	s = strings.TrimRight(s, " \t\r\n")

	if strings.HasSuffix(s, ":") {
		s = strings.TrimRight(s[:len(s)-1], " \t\r\n")
		s = trimTrailingString(s)
		s = strings.TrimRight(s, " \t\r\n")
	} else if strings.HasSuffix(s, `"`) && danglingKey(s) {
		s = trimTrailingString(s)
		s = strings.TrimRight(s, " \t\r\n")
	}

	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, ",")
	return strings.TrimRight(s, " \t\r\n")
}

// trimTrailingString removes a complete string literal from the end of s.
func trimTrailingString(s string) string {
	if !strings.HasSuffix(s, `"`) {
		return s
	}
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] == '"' && (i == 0 || s[i-1] != '\\') {
			return s[:i]
		}
	}
	return s
}

// danglingKey reports whether the trailing string literal is an object key
// awaiting its colon, judged by the significant character preceding it.
func danglingKey(s string) bool {
	t := trimTrailingString(s)
	if t == s {
		return false
	}
	t = strings.TrimRight(t, " \t\r\n")
	return strings.HasSuffix(t, "{") || strings.HasSuffix(t, ",")
}

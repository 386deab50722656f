package formatter

import (
	"fmt"
	"strings"

	"github.com/jihwankim/styleinfer/pkg/style"
)

// ParseFlowStyle parses the small YAML-flow subset accepted by the
// --startstyle CLI flag: "{ Key: value, Nested: { Inner: value }, ... }".
// It is also reused to parse clang-format's --style argument echo when a
// style is passed inline rather than via a config file.
func ParseFlowStyle(text string) (style.Style, error) {
	p := &flowParser{input: text}
	p.skipSpace()
	if !p.consume('{') {
		return style.Style{}, fmt.Errorf("formatter: flow style must start with '{': %q", text)
	}
	s, err := p.parseFlowBody()
	if err != nil {
		return style.Style{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return style.Style{}, fmt.Errorf("formatter: trailing input after flow style: %q", p.input[p.pos:])
	}
	return s, nil
}

type flowParser struct {
	input string
	pos   int
}

func (p *flowParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n') {
		p.pos++
	}
}

func (p *flowParser) consume(b byte) bool {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

// parseFlowBody parses the content after an already-consumed '{' up to and
// including the matching '}'.
func (p *flowParser) parseFlowBody() (style.Style, error) {
	s := style.Style{}
	p.skipSpace()
	if p.consume('}') {
		return s, nil
	}
	for {
		name, err := p.parseKey()
		if err != nil {
			return style.Style{}, err
		}
		if !p.consume(':') {
			return style.Style{}, fmt.Errorf("formatter: expected ':' after key %q", name)
		}
		p.skipSpace()

		var v style.Value
		if p.pos < len(p.input) && p.input[p.pos] == '{' {
			p.pos++
			nested, err := p.parseFlowBody()
			if err != nil {
				return style.Style{}, err
			}
			v = style.StyleValue(nested)
		} else {
			raw, err := p.parseScalar()
			if err != nil {
				return style.Style{}, err
			}
			v, err = style.Typeconv(raw)
			if err != nil {
				return style.Style{}, err
			}
		}
		s = s.Set(name, v)

		p.skipSpace()
		if p.consume(',') {
			p.skipSpace()
			continue
		}
		if p.consume('}') {
			return s, nil
		}
		return style.Style{}, fmt.Errorf("formatter: expected ',' or '}' in flow style at %q", p.input[p.pos:])
	}
}

func (p *flowParser) parseKey() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ':' && p.input[p.pos] != ' ' {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("formatter: empty key at %q", p.input[start:])
	}
	return p.input[start:p.pos], nil
}

func (p *flowParser) parseScalar() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ',' && p.input[p.pos] != '}' {
		p.pos++
	}
	return strings.TrimSpace(p.input[start:p.pos]), nil
}

// ParseBlockStyle parses the indentation-based YAML subset a clang-format
// family tool emits for `--dump-config`: a flat sequence of "Key: value"
// lines, with two-space-indented "Key: value" lines nesting under the last
// top-level key that introduced a bare "Key:" (no value on the same line).
func ParseBlockStyle(text string) (style.Style, error) {
	lines := strings.Split(text, "\n")
	idx := 0
	s, _, err := parseBlockLines(lines, &idx, 0)
	return s, err
}

// parseBlockLines consumes lines starting at *idx whose indentation equals
// minIndent, returning once a shallower or blank-after-end line is seen.
func parseBlockLines(lines []string, idx *int, minIndent int) (style.Style, int, error) {
	s := style.Style{}

	for *idx < len(lines) {
		raw := lines[*idx]
		trimmed := strings.TrimRight(raw, " \r")
		if t := strings.TrimSpace(trimmed); t == "" || t == "---" || t == "..." {
			*idx++
			continue
		}

		indent := leadingSpaces(trimmed)
		if indent < minIndent {
			break
		}
		if indent > minIndent {
			return style.Style{}, 0, fmt.Errorf("formatter: unexpected indentation at line %q", trimmed)
		}

		content := strings.TrimSpace(trimmed)
		if strings.HasPrefix(content, "#") {
			// A commented-out "# Key: value" line is promoted to a key-value
			// pair; any other comment line is skipped.
			content = strings.TrimSpace(strings.TrimPrefix(content, "#"))
			if !strings.Contains(content, ":") {
				*idx++
				continue
			}
		}
		colon := strings.IndexByte(content, ':')
		if colon < 0 {
			return style.Style{}, 0, fmt.Errorf("formatter: expected 'Key: value' at %q", content)
		}
		name := strings.TrimSpace(content[:colon])
		valueText := strings.TrimSpace(content[colon+1:])

		*idx++
		if valueText == "" {
			nested, nextIdx, err := parseBlockLines(lines, idx, indent+2)
			if err != nil {
				return style.Style{}, 0, err
			}
			*idx = nextIdx
			s = s.Set(name, style.StyleValue(nested))
			continue
		}

		clean := stripInlineComment(valueText)
		if strings.HasPrefix(clean, "[") {
			s = s.Set(name, style.StrValue(parseInlineList(clean)))
			continue
		}

		v, err := style.Typeconv(clean)
		if err != nil {
			return style.Style{}, 0, err
		}
		s = s.Set(name, v)
	}

	return s, *idx, nil
}

func leadingSpaces(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// parseInlineList renders a "[ a, b, c ]" scalar as a comma-joined string,
// the option type (ForEachMacros and friends) never feeding into the
// search as a variant axis of its own — only round-tripped through
// Serialize, so a flat string representation loses nothing the engine
// needs.
func parseInlineList(value string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

func stripInlineComment(value string) string {
	if i := strings.Index(value, " #"); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return value
}

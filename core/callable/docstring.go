package callable

import (
	"strings"
	"unicode"
)

// Doc is the parsed form of a type's documentation.
type Doc struct {
	// Summary is the first line of the documentation.
	Summary string
	// Description is the remaining free text before the first section.
	Description string
	// Params maps parameter names to their descriptions.
	Params map[string]string
}

// ParseDoc extracts a summary and parameter descriptions from free text.
// Three layouts are recognised for parameters:
//
//	:param name: description          (reST field lists, also :ivar: and :type name:)
//
//	Args:                             (Google style: Args, Arguments, Parameters,
//	    name (type): description       Params, Attributes, Fields; bullets allowed)
//
//	Parameters                        (NumPy style)
//	----------
//	name : type
//	    description
//
// Other sections (Returns, Raises, Examples...) are skipped.
func ParseDoc(text string) Doc {
	doc := Doc{Params: make(map[string]string)}
	lines := cleanDoc(text)

	var prose []string
	sectionSeen := false

	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case isFieldListLine(trimmed):
			sectionSeen = true
			i = parseFieldList(lines, i, doc.Params)
		case isNumpyHeader(lines, i):
			sectionSeen = true
			i = parseNumpySection(lines, i, doc.Params)
		case isGoogleHeader(trimmed):
			sectionSeen = true
			i = parseGoogleSection(lines, i, doc.Params)
		default:
			if !sectionSeen {
				prose = append(prose, lines[i])
			}
			i++
		}
	}

	doc.Summary, doc.Description = splitProse(prose)
	return doc
}

// cleanDoc splits text into lines, removes the common indentation of all lines
// after the first one and drops leading and trailing blank lines.
func cleanDoc(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
	}

	margin := -1
	for _, l := range lines[1:] {
		if l == "" {
			continue
		}
		if ind := indentOf(l); margin == -1 || ind < margin {
			margin = ind
		}
	}
	lines[0] = strings.TrimSpace(lines[0])
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			}
		}
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func splitProse(prose []string) (summary, description string) {
	for len(prose) > 0 && strings.TrimSpace(prose[0]) == "" {
		prose = prose[1:]
	}
	if len(prose) == 0 {
		return "", ""
	}

	summary = strings.TrimSpace(prose[0])

	var paragraphs []string
	var current []string
	for _, l := range prose[1:] {
		t := strings.TrimSpace(l)
		if t == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return summary, strings.Join(paragraphs, "\n\n")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func appendText(existing, more string) string {
	if existing == "" {
		return more
	}
	return existing + " " + more
}

/*
	reST field lists
*/

var fieldListParamKinds = map[string]bool{
	"param": true, "parameter": true, "arg": true, "argument": true,
	"key": true, "keyword": true, "ivar": true, "var": true, "cvar": true,
	"attribute": true,
}

func isFieldListLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, ":") {
		return false
	}
	end := strings.Index(trimmed[1:], ":")
	return end > 0
}

func parseFieldList(lines []string, i int, params map[string]string) int {
	ind := indentOf(lines[i])
	trimmed := strings.TrimSpace(lines[i])

	rest := trimmed[1:]
	end := strings.Index(rest, ":")
	fields := strings.Fields(rest[:end])
	desc := strings.TrimSpace(rest[end+1:])

	i++
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" && indentOf(lines[i]) > ind {
		desc = appendText(desc, strings.TrimSpace(lines[i]))
		i++
	}

	if len(fields) >= 2 && fieldListParamKinds[fields[0]] {
		name := fields[len(fields)-1]
		params[name] = desc
	}
	return i
}

/*
	Google style sections
*/

var paramSections = map[string]bool{
	"args": true, "arguments": true, "parameters": true, "params": true,
	"attributes": true, "attrs": true, "fields": true,
	"keyword args": true, "keyword arguments": true, "other parameters": true,
}

var otherSections = map[string]bool{
	"returns": true, "return": true, "yields": true, "yield": true,
	"raises": true, "raise": true, "exceptions": true,
	"example": true, "examples": true, "note": true, "notes": true,
	"see also": true, "warning": true, "warnings": true, "todo": true,
	"references": true, "methods": true,
}

func sectionName(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func isGoogleHeader(trimmed string) bool {
	name, ok := strings.CutSuffix(trimmed, ":")
	if !ok {
		return false
	}
	n := sectionName(name)
	return paramSections[n] || otherSections[n]
}

func isBullet(trimmed string) bool {
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ")
}

func parseGoogleSection(lines []string, i int, params map[string]string) int {
	headerIndent := indentOf(lines[i])
	collect := paramSections[sectionName(strings.TrimSuffix(strings.TrimSpace(lines[i]), ":"))]
	i++

	entryIndent := -1
	current := ""
	for ; i < len(lines); i++ {
		line := lines[i]
		body := strings.TrimSpace(line)
		if body == "" {
			continue
		}

		ind := indentOf(line)
		if ind < headerIndent || (ind == headerIndent && !isBullet(body)) {
			break
		}
		if !collect {
			continue
		}

		if entryIndent == -1 {
			entryIndent = ind
		}
		if ind <= entryIndent {
			body = strings.TrimSpace(strings.TrimLeft(body, "-*"))
			if name, desc, ok := splitEntry(body); ok {
				current = name
				params[name] = desc
			} else {
				current = ""
			}
			continue
		}
		if current != "" {
			params[current] = appendText(params[current], body)
		}
	}
	return i
}

// splitEntry splits "name (type): description" or "name: description".
func splitEntry(body string) (name, desc string, ok bool) {
	head, desc, found := strings.Cut(body, ":")
	if !found {
		return "", "", false
	}
	if p := strings.Index(head, "("); p >= 0 {
		head = head[:p]
	}
	name = strings.Trim(strings.TrimSpace(head), "`*")
	if !isIdentifier(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(desc), true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

/*
	NumPy style sections
*/

func isNumpyHeader(lines []string, i int) bool {
	if i+1 >= len(lines) || strings.TrimSpace(lines[i]) == "" {
		return false
	}
	underline := strings.TrimSpace(lines[i+1])
	return len(underline) >= 3 && strings.Trim(underline, "-") == ""
}

func parseNumpySection(lines []string, i int, params map[string]string) int {
	headerIndent := indentOf(lines[i])
	collect := paramSections[sectionName(lines[i])]
	i += 2

	var current []string
	for i < len(lines) {
		if isNumpyHeader(lines, i) {
			break
		}
		line := lines[i]
		body := strings.TrimSpace(line)
		if body == "" {
			i++
			continue
		}

		ind := indentOf(line)
		if ind < headerIndent {
			break
		}
		if ind == headerIndent {
			head, _, _ := strings.Cut(body, ":")
			current = current[:0]
			for _, n := range strings.Split(head, ",") {
				n = strings.Trim(strings.TrimSpace(n), "`*")
				if isIdentifier(n) {
					current = append(current, n)
					if collect {
						params[n] = ""
					}
				}
			}
		} else if collect {
			for _, n := range current {
				params[n] = appendText(params[n], body)
			}
		}
		i++
	}
	return i
}

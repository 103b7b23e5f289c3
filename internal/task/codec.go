package task

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// The batch task file holds one task per line:
//
//	text | voice | outputPath
//
// Voice and outputPath are optional. A literal '|', '\' or newline inside a
// field is escaped with a backslash ("\|", "\\", "\n"). Blank lines and
// lines starting with '#' are skipped.

// ParseError reports a malformed line in a batch task file. Line numbers
// are 1-based.
type ParseError struct {
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse decodes a batch task file into an ordered task list. Parsing aborts
// on the first malformed line; there is no partial result.
func Parse(src string) ([]Task, error) {
	var tasks []Task

	for i, line := range strings.Split(src, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}

		rawFields := splitEscaped(stripped)

		fields := make([]string, len(rawFields))
		for j, raw := range rawFields {
			field, err := unescapeField(strings.TrimSpace(raw))
			if err != nil {
				return nil, &ParseError{Line: i + 1, Msg: err.Error()}
			}
			fields[j] = field
		}

		text := fields[0]
		var voice, output string
		if len(fields) > 1 {
			voice = fields[1]
		}
		if len(fields) > 2 {
			output = fields[2]
		}

		// Rows that decode to nothing at all are treated as blank.
		if text == "" && voice == "" && output == "" {
			continue
		}

		tasks = append(tasks, New(text, voice, output))
	}

	return tasks, nil
}

// Serialize encodes tasks back into the batch task file format. It is the
// inverse of Parse: for any task list whose fields are free of leading and
// trailing whitespace, Parse(Serialize(tasks)) yields an equal list.
func Serialize(tasks []Task) string {
	var b strings.Builder
	for _, t := range tasks {
		fields := []string{escapeField(t.Text)}
		switch {
		case t.OutputPath != "":
			fields = append(fields, escapeField(t.Voice), escapeField(t.OutputPath))
		case t.Voice != "":
			fields = append(fields, escapeField(t.Voice))
		}
		b.WriteString(strings.Join(fields, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}

// LoadFile reads and parses a batch task file. A leading ~ in the path is
// expanded.
func LoadFile(path string) ([]Task, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("unable to read task file: %w", err)
	}
	return Parse(string(data))
}

// SaveFile serializes tasks and writes them to path.
func SaveFile(path string, tasks []Task) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("unable to expand path: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(Serialize(tasks)), 0o644); err != nil {
		return fmt.Errorf("unable to write task file: %w", err)
	}
	return nil
}

// splitEscaped splits a line on unescaped '|' delimiters, keeping escape
// sequences intact for unescapeField.
func splitEscaped(line string) []string {
	var fields []string
	var current strings.Builder
	escaped := false

	for _, ch := range line {
		if escaped {
			current.WriteRune(ch)
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			current.WriteRune(ch)
			escaped = true
		case '|':
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	fields = append(fields, current.String())
	return fields
}

// unescapeField decodes the escape sequences of a single raw field. A
// dangling backslash at the end of the field is malformed.
func unescapeField(raw string) (string, error) {
	var b strings.Builder
	runes := []rune(raw)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' {
			b.WriteRune(runes[i])
			continue
		}
		if i+1 >= len(runes) {
			return "", fmt.Errorf("dangling escape character")
		}
		i++
		switch runes[i] {
		case 'n':
			b.WriteByte('\n')
		default:
			// '|' and '\' decode to themselves; unknown escapes are
			// tolerated the same way.
			b.WriteRune(runes[i])
		}
	}

	return b.String(), nil
}

// escapeField encodes a field value for the batch task file format.
func escapeField(value string) string {
	var b strings.Builder
	for _, ch := range value {
		switch ch {
		case '\n':
			b.WriteString(`\n`)
		case '\\':
			b.WriteString(`\\`)
		case '|':
			b.WriteString(`\|`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

package fusion

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

var _ fmt.Stringer = (*Session)(nil)

// FormatSession writes a readable outline of s to w. Every query is listed
// with its variable renames and its selections, each field annotated with
// the key it is read from in the merged response.
func FormatSession(w io.Writer, s *Session) {
	f := &sessionFormatter{writer: w, lineHead: true}
	f.formatSession(s)
}

func (s *Session) String() string {
	var buf strings.Builder
	FormatSession(&buf, s)
	return buf.String()
}

type sessionFormatter struct {
	writer io.Writer

	indent int

	padNext  bool
	lineHead bool
}

func (f *sessionFormatter) writeString(s string) {
	_, _ = f.writer.Write([]byte(s))
}

func (f *sessionFormatter) writeIndent() *sessionFormatter {
	if f.lineHead {
		f.writeString(strings.Repeat("\t", f.indent))
	}
	f.lineHead = false
	f.padNext = false

	return f
}

func (f *sessionFormatter) WriteNewline() *sessionFormatter {
	f.writeString("\n")
	f.lineHead = true
	f.padNext = false

	return f
}

func (f *sessionFormatter) WriteWord(word string) *sessionFormatter {
	if f.lineHead {
		f.writeIndent()
	}
	if f.padNext {
		f.writeString(" ")
	}
	f.writeString(strings.TrimSpace(word))
	f.padNext = true

	return f
}

func (f *sessionFormatter) WriteString(s string) *sessionFormatter {
	if f.lineHead {
		f.writeIndent()
	}
	if f.padNext {
		f.writeString(" ")
	}
	f.writeString(s)
	f.padNext = false

	return f
}

func (f *sessionFormatter) IncrementIndent() {
	f.indent++
}

func (f *sessionFormatter) DecrementIndent() {
	f.indent--
}

func (f *sessionFormatter) NoPadding() *sessionFormatter {
	f.padNext = false

	return f
}

func (f *sessionFormatter) NeedPadding() *sessionFormatter {
	f.padNext = true

	return f
}

func (f *sessionFormatter) formatSession(s *Session) {
	f.WriteWord(fmt.Sprintf("Fusion(operation: %q)", s.OperationName)).WriteWord("{").WriteNewline()
	f.IncrementIndent()

	for idx, selectionSet := range s.expanded {
		f.WriteWord(fmt.Sprintf("Query(index: %d)", idx)).WriteWord("{").WriteNewline()
		f.IncrementIndent()

		f.formatVariableRenames(s.variableRenames[idx])
		f.formatSelectionSet(s, idx, "", selectionSet)

		f.DecrementIndent()
		f.WriteWord("}").WriteNewline()
	}

	f.DecrementIndent()
	f.WriteWord("}").WriteNewline()
}

func (f *sessionFormatter) formatVariableRenames(renames map[string]string) {
	if len(renames) == 0 {
		return
	}

	names := make([]string, 0, len(renames))
	for name := range renames {
		names = append(names, name)
	}
	sort.Strings(names)

	f.WriteWord("variables").WriteWord("{")
	for idx, name := range names {
		f.WriteWord(fmt.Sprintf("$%s -> $%s", name, renames[name]))
		if idx != len(names)-1 {
			f.NoPadding().WriteString(",").NeedPadding()
		}
	}
	f.WriteWord("}").WriteNewline()
}

func (f *sessionFormatter) formatSelectionSet(s *Session, query int, path string, selectionSet ast.SelectionSet) {
	for idx, selection := range selectionSet {
		p := childPath(path, idx)

		switch selection := selection.(type) {
		case *ast.Field:
			name := responseName(selection)
			f.WriteWord(name)
			if key := s.payloadKey(query, p, selection); key != name {
				f.WriteWord("<-").WriteWord(key)
			}
			if len(selection.SelectionSet) != 0 {
				f.WriteWord("{").WriteNewline()
				f.IncrementIndent()
				f.formatSelectionSet(s, query, p, selection.SelectionSet)
				f.DecrementIndent()
				f.WriteWord("}")
			}
			f.WriteNewline()

		case *ast.InlineFragment:
			f.WriteWord("...")
			if selection.TypeCondition != "" {
				f.WriteWord("on").WriteWord(selection.TypeCondition)
			}
			f.WriteWord("{").WriteNewline()
			f.IncrementIndent()
			f.formatSelectionSet(s, query, p, selection.SelectionSet)
			f.DecrementIndent()
			f.WriteWord("}").WriteNewline()
		}
	}
}

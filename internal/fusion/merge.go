package fusion

import (
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// selectionKey identifies one selection of one expanded query by its index
// path from the operation root, e.g. ".0.2".
type selectionKey struct {
	Query int
	Path  string
}

func childPath(path string, idx int) string {
	return path + "." + strconv.Itoa(idx)
}

type mergedSelection struct {
	field    *ast.Field
	fragment *ast.InlineFragment
	other    ast.Selection

	// fragmentKey groups inline fragments that may share one node.
	fragmentKey string
	// children of fields sharing one response key at one level point to the
	// same set, so their sub selections are merged together.
	children *mergedSelectionSet
}

func (sel *mergedSelection) responseKey() string {
	return responseName(sel.field)
}

type mergedSelectionSet struct {
	selections []*mergedSelection
}

// merger folds the expanded selection trees of all queries into one tree.
// Occurrences that can't share a response slot get a minted alias, and the
// payload key every field occurrence reads from is recorded in responseKeys.
type merger struct {
	fieldNames   map[string]struct{}
	aliases      map[string]string
	responseKeys map[selectionKey]string
}

func (m *merger) mergeSelectionSets(selectionSets []ast.SelectionSet) ast.SelectionSet {
	root := &mergedSelectionSet{}
	for idx, selectionSet := range selectionSets {
		if selectionSet == nil {
			continue
		}
		m.mergeInto(root, root, idx, "", selectionSet)
	}

	return root.toSelectionSet()
}

// mergeInto merges selectionSet into target. level is the set holding the
// fields of the same response object as target, which differs from target
// when target belongs to an inline fragment.
func (m *merger) mergeInto(target, level *mergedSelectionSet, query int, path string, selectionSet ast.SelectionSet) {
	for idx, selection := range selectionSet {
		p := childPath(path, idx)

		switch selection := selection.(type) {
		case *ast.Field:
			entry, _ := target.findMergeableField(selection)
			if entry == nil {
				shared, exists := level.findMergeableFieldInLevel(selection)
				copied := *selection
				copied.SelectionSet = nil
				entry = &mergedSelection{field: &copied}
				switch {
				case shared != nil:
					copied.Alias = shared.field.Alias
					entry.children = shared.children
				case exists:
					copied.Alias = m.mintAlias(selection)
					entry.children = &mergedSelectionSet{}
				default:
					copied.Alias = selection.Name
					entry.children = &mergedSelectionSet{}
				}
				target.selections = append(target.selections, entry)
			}
			m.responseKeys[selectionKey{Query: query, Path: p}] = entry.responseKey()

			if len(selection.SelectionSet) == 0 {
				continue
			}
			m.mergeInto(entry.children, entry.children, query, p, selection.SelectionSet)

		case *ast.InlineFragment:
			key := selection.TypeCondition + " " + directivesKey(selection.Directives)
			entry := target.findInlineFragment(key)
			if entry == nil {
				copied := *selection
				copied.SelectionSet = nil
				entry = &mergedSelection{
					fragment:    &copied,
					fragmentKey: key,
					children:    &mergedSelectionSet{},
				}
				target.selections = append(target.selections, entry)
			}
			m.mergeInto(entry.children, level, query, p, selection.SelectionSet)

		default:
			target.selections = append(target.selections, &mergedSelection{other: selection})
		}
	}
}

// mintAlias returns a name for field that no query uses anywhere, and
// remembers which response key the original query expects for it.
func (m *merger) mintAlias(field *ast.Field) string {
	candidate := field.Name
	for {
		if _, ok := m.fieldNames[candidate]; !ok {
			break
		}
		candidate = "_" + candidate
	}
	m.fieldNames[candidate] = struct{}{}
	m.aliases[candidate] = responseName(field)

	return candidate
}

// findMergeableField returns the first merged field of set that field can
// share a response slot with. exists reports whether any merged field of set
// has the same name.
func (set *mergedSelectionSet) findMergeableField(field *ast.Field) (entry *mergedSelection, exists bool) {
	for _, sel := range set.selections {
		if sel.field == nil || sel.field.Name != field.Name {
			continue
		}
		exists = true
		if !fieldsMergeable(sel.field, field) {
			continue
		}
		return sel, true
	}

	return nil, exists
}

// findMergeableFieldInLevel works like findMergeableField but also looks
// into the inline fragments of set, as they all write into one response object.
func (set *mergedSelectionSet) findMergeableFieldInLevel(field *ast.Field) (entry *mergedSelection, exists bool) {
	for _, sel := range set.selections {
		switch {
		case sel.field != nil:
			if sel.field.Name != field.Name {
				continue
			}
			exists = true
			if fieldsMergeable(sel.field, field) {
				return sel, true
			}
		case sel.fragment != nil:
			found, foundExists := sel.children.findMergeableFieldInLevel(field)
			if found != nil {
				return found, true
			}
			exists = exists || foundExists
		}
	}

	return nil, exists
}

func fieldsMergeable(a, b *ast.Field) bool {
	if !argumentsMatch(a.Arguments, b.Arguments) {
		return false
	}

	return directivesKey(a.Directives) == directivesKey(b.Directives)
}

func (set *mergedSelectionSet) findInlineFragment(key string) *mergedSelection {
	for _, sel := range set.selections {
		if sel.fragment != nil && sel.fragmentKey == key {
			return sel
		}
	}

	return nil
}

func (set *mergedSelectionSet) toSelectionSet() ast.SelectionSet {
	if set == nil || len(set.selections) == 0 {
		return nil
	}

	result := make(ast.SelectionSet, 0, len(set.selections))
	for _, sel := range set.selections {
		switch {
		case sel.field != nil:
			copied := *sel.field
			copied.SelectionSet = sel.children.toSelectionSet()
			result = append(result, &copied)
		case sel.fragment != nil:
			copied := *sel.fragment
			copied.SelectionSet = sel.children.toSelectionSet()
			result = append(result, &copied)
		default:
			result = append(result, sel.other)
		}
	}

	return result
}

// argumentsMatch reports whether two argument lists are known to be equal.
// Only scalar literals and variables are compared; list and object values
// never match.
func argumentsMatch(argsA, argsB ast.ArgumentList) bool {
	if len(argsA) != len(argsB) {
		return false
	}
	for _, argA := range argsA {
		argB := argsB.ForName(argA.Name)
		if argB == nil {
			return false
		}
		if !scalarValuesMatch(argA.Value, argB.Value) {
			return false
		}
	}

	return true
}

func scalarValuesMatch(a, b *ast.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ast.ListValue, ast.ObjectValue:
		// TODO compare list and object values structurally
		return false
	}

	return a.Raw == b.Raw
}

func directivesKey(directives ast.DirectiveList) string {
	if len(directives) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, directive := range directives {
		sb.WriteString("@")
		sb.WriteString(directive.Name)
		if len(directive.Arguments) == 0 {
			continue
		}
		sb.WriteString("(")
		for idx, arg := range directive.Arguments {
			if idx != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.Name)
			sb.WriteString(": ")
			sb.WriteString(arg.Value.String())
		}
		sb.WriteString(")")
	}

	return sb.String()
}

package fusion

import "github.com/vektah/gqlparser/v2/ast"

// expander inlines fragment spreads and applies variable renames to one
// query's selection tree. Every field name it meets is recorded in fieldNames.
type expander struct {
	fragments  fragmentTable
	fieldNames map[string]struct{}

	renames map[string]string
	varDefs map[string]*ast.VariableDefinition
}

func (e *expander) expandSelectionSet(selectionSet ast.SelectionSet, visiting []string) (ast.SelectionSet, error) {
	if selectionSet == nil {
		return nil, nil
	}

	result := make(ast.SelectionSet, 0, len(selectionSet))
	for _, selection := range selectionSet {
		switch selection := selection.(type) {
		case *ast.Field:
			e.fieldNames[selection.Name] = struct{}{}
			e.fieldNames[responseName(selection)] = struct{}{}

			copied := *selection
			copied.Arguments = renameArguments(selection.Arguments, e.renames, e.varDefs)
			copied.Directives = renameDirectives(selection.Directives, e.renames, e.varDefs)
			children, err := e.expandSelectionSet(selection.SelectionSet, visiting)
			if err != nil {
				return nil, err
			}
			copied.SelectionSet = children
			result = append(result, &copied)

		case *ast.FragmentSpread:
			fragment, ok := e.fragments[selection.Name]
			if !ok {
				return nil, &UnknownFragmentError{
					Name:     selection.Name,
					Position: selection.Position,
				}
			}
			for idx, name := range visiting {
				if name == selection.Name {
					cycle := make([]string, 0, len(visiting)-idx+1)
					cycle = append(cycle, visiting[idx:]...)
					cycle = append(cycle, selection.Name)
					return nil, &CyclicFragmentError{Cycle: cycle}
				}
			}

			nextVisiting := make([]string, 0, len(visiting)+1)
			nextVisiting = append(nextVisiting, visiting...)
			nextVisiting = append(nextVisiting, selection.Name)
			children, err := e.expandSelectionSet(fragment.SelectionSet, nextVisiting)
			if err != nil {
				return nil, err
			}

			if len(selection.Directives) == 0 {
				result = append(result, children...)
				continue
			}
			// keep the spread's directives attached to the inlined selections
			result = append(result, &ast.InlineFragment{
				TypeCondition:    fragment.TypeCondition,
				Directives:       renameDirectives(selection.Directives, e.renames, e.varDefs),
				SelectionSet:     children,
				ObjectDefinition: fragment.Definition,
				Position:         selection.Position,
			})

		case *ast.InlineFragment:
			copied := *selection
			copied.Directives = renameDirectives(selection.Directives, e.renames, e.varDefs)
			children, err := e.expandSelectionSet(selection.SelectionSet, visiting)
			if err != nil {
				return nil, err
			}
			copied.SelectionSet = children
			result = append(result, &copied)

		default:
			result = append(result, selection)
		}
	}

	return result, nil
}

func responseName(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}

	return field.Name
}

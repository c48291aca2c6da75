package fusion

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
)

// variableRenamer hands out collision free variable names across all fused
// queries. Names are reserved in the order they are requested.
type variableRenamer struct {
	registered map[string]struct{}
}

func newVariableRenamer() *variableRenamer {
	return &variableRenamer{
		registered: make(map[string]struct{}),
	}
}

func (r *variableRenamer) reserve(name string) string {
	for {
		if _, ok := r.registered[name]; !ok {
			break
		}
		name = "_" + name
	}
	r.registered[name] = struct{}{}
	return name
}

// renameVariables registers every variable of one query and returns the
// old name -> new name map for it. Bound values are copied into merged under
// their new names.
func (r *variableRenamer) renameVariables(op *ast.OperationDefinition, values map[string]interface{}, merged map[string]interface{}) map[string]string {
	renames := make(map[string]string)

	// declared variables first, in document order
	var names []string
	for _, varDef := range op.VariableDefinitions {
		if _, ok := renames[varDef.Variable]; ok {
			continue
		}
		renames[varDef.Variable] = ""
		names = append(names, varDef.Variable)
	}

	var extra []string
	for name := range values {
		if _, ok := renames[name]; ok {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	names = append(names, extra...)

	for _, name := range names {
		newName := r.reserve(name)
		renames[name] = newName
		if value, ok := values[name]; ok {
			merged[newName] = value
		}
	}

	return renames
}

func renameVariableDefinitions(varDefs ast.VariableDefinitionList, renames map[string]string) ast.VariableDefinitionList {
	result := make(ast.VariableDefinitionList, 0, len(varDefs))
	for _, varDef := range varDefs {
		copied := *varDef
		if newName, ok := renames[varDef.Variable]; ok {
			copied.Variable = newName
		}
		result = append(result, &copied)
	}
	return result
}

// renameValue returns value with every variable reference renamed. Values
// without variables are returned as is.
func renameValue(value *ast.Value, renames map[string]string, varDefs map[string]*ast.VariableDefinition) *ast.Value {
	if value == nil {
		return nil
	}

	switch value.Kind {
	case ast.Variable:
		newName, ok := renames[value.Raw]
		if !ok {
			return value
		}
		copied := *value
		copied.Raw = newName
		if varDef, ok := varDefs[newName]; ok {
			copied.VariableDefinition = varDef
		}
		return &copied

	case ast.ListValue, ast.ObjectValue:
		var children ast.ChildValueList
		changed := false
		for _, child := range value.Children {
			newValue := renameValue(child.Value, renames, varDefs)
			if newValue != child.Value {
				changed = true
			}
			copiedChild := *child
			copiedChild.Value = newValue
			children = append(children, &copiedChild)
		}
		if !changed {
			return value
		}
		copied := *value
		copied.Children = children
		return &copied
	}

	return value
}

func renameArguments(args ast.ArgumentList, renames map[string]string, varDefs map[string]*ast.VariableDefinition) ast.ArgumentList {
	if args == nil {
		return nil
	}
	result := make(ast.ArgumentList, 0, len(args))
	for _, arg := range args {
		copied := *arg
		copied.Value = renameValue(arg.Value, renames, varDefs)
		result = append(result, &copied)
	}
	return result
}

func renameDirectives(directives ast.DirectiveList, renames map[string]string, varDefs map[string]*ast.VariableDefinition) ast.DirectiveList {
	if directives == nil {
		return nil
	}
	result := make(ast.DirectiveList, 0, len(directives))
	for _, directive := range directives {
		copied := *directive
		copied.Arguments = renameArguments(directive.Arguments, renames, varDefs)
		result = append(result, &copied)
	}
	return result
}

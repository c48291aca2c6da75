package fusion

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

func joinOperationNames(names []string) string {
	return strings.Join(names, "_")
}

func assembleDocument(operationName string, varDefs ast.VariableDefinitionList, selectionSet ast.SelectionSet) *ast.QueryDocument {
	if len(varDefs) == 0 {
		varDefs = nil
	}

	return &ast.QueryDocument{
		Operations: ast.OperationList{
			&ast.OperationDefinition{
				Operation:           ast.Query,
				Name:                operationName,
				VariableDefinitions: varDefs,
				SelectionSet:        selectionSet,
			},
		},
	}
}

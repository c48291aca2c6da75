package fusion

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlfusion/internal/log"
)

var _ logr.Marshaler = (*Session)(nil)

// QueryOperation is one request taking part in a fusion.
type QueryOperation struct {
	Document      *ast.QueryDocument
	Variables     map[string]interface{}
	OperationName string
}

// Session holds a fused document and everything needed to split responses
// to it. It is built once by NewSession and only read afterwards, so
// splitting may happen from several goroutines.
type Session struct {
	Document      *ast.QueryDocument
	Variables     map[string]interface{}
	OperationName string

	variableRenames []map[string]string
	fragments       fragmentTable
	fieldNames      map[string]struct{}
	aliases         map[string]string
	responseKeys    map[selectionKey]string

	// expanded holds the fragment free selection tree of every input query.
	expanded []ast.SelectionSet
}

func NewSession(ctx context.Context, ops []*QueryOperation) (*Session, error) {
	logger := log.Named(ctx, "fusion")

	s := &Session{
		Variables:    make(map[string]interface{}),
		fieldNames:   make(map[string]struct{}),
		aliases:      make(map[string]string),
		responseKeys: make(map[selectionKey]string),
	}

	opDefs := make([]*ast.OperationDefinition, 0, len(ops))
	docs := make([]*ast.QueryDocument, 0, len(ops))
	names := make([]string, 0, len(ops))
	for idx, op := range ops {
		opDef, err := selectOperation(idx, op)
		if err != nil {
			return nil, err
		}
		opDefs = append(opDefs, opDef)
		docs = append(docs, op.Document)

		name := op.OperationName
		if name == "" {
			name = opDef.Name
		}
		names = append(names, name)
	}
	s.OperationName = joinOperationNames(names)

	renamer := newVariableRenamer()
	var mergedVarDefs ast.VariableDefinitionList
	varDefsByQuery := make([]map[string]*ast.VariableDefinition, 0, len(ops))
	for idx, opDef := range opDefs {
		renames := renamer.renameVariables(opDef, ops[idx].Variables, s.Variables)
		s.variableRenames = append(s.variableRenames, renames)

		varDefs := renameVariableDefinitions(opDef.VariableDefinitions, renames)
		mergedVarDefs = append(mergedVarDefs, varDefs...)

		lookup := make(map[string]*ast.VariableDefinition, len(varDefs))
		for _, varDef := range varDefs {
			lookup[varDef.Variable] = varDef
		}
		varDefsByQuery = append(varDefsByQuery, lookup)
	}

	s.fragments = buildFragmentTable(docs)

	for idx, opDef := range opDefs {
		e := &expander{
			fragments:  s.fragments,
			fieldNames: s.fieldNames,
			renames:    s.variableRenames[idx],
			varDefs:    varDefsByQuery[idx],
		}
		expanded, err := e.expandSelectionSet(opDef.SelectionSet, nil)
		if err != nil {
			return nil, err
		}
		s.expanded = append(s.expanded, expanded)
	}

	m := &merger{
		fieldNames:   s.fieldNames,
		aliases:      s.aliases,
		responseKeys: s.responseKeys,
	}
	selectionSet := m.mergeSelectionSets(s.expanded)

	s.Document = assembleDocument(s.OperationName, mergedVarDefs, selectionSet)

	logger.V(1).Info("queries fused", "operationName", s.OperationName, "session", s)

	return s, nil
}

func selectOperation(idx int, op *QueryOperation) (*ast.OperationDefinition, error) {
	if op == nil || op.Document == nil {
		return nil, &MissingOperationError{Index: idx, Reason: "document is empty"}
	}

	operations := op.Document.Operations
	var opDef *ast.OperationDefinition
	if op.OperationName != "" {
		for _, candidate := range operations {
			if candidate.Name == op.OperationName {
				opDef = candidate
				break
			}
		}
	}
	// a lone operation is used whatever its name
	if opDef == nil && len(operations) == 1 {
		opDef = operations[0]
	}
	if opDef == nil {
		reason := "document has no operation definition"
		if len(operations) > 1 {
			reason = "operation name doesn't match any of the operations"
		}
		return nil, &MissingOperationError{Index: idx, OperationName: op.OperationName, Reason: reason}
	}
	if opDef.Operation != "" && opDef.Operation != ast.Query {
		return nil, &MissingOperationError{
			Index:         idx,
			OperationName: op.OperationName,
			Reason:        "only query operations can be fused, got " + string(opDef.Operation),
		}
	}

	return opDef, nil
}

// VariableRenames returns the old name -> new name map of the query at idx.
func (s *Session) VariableRenames(idx int) map[string]string {
	result := make(map[string]string, len(s.variableRenames[idx]))
	for k, v := range s.variableRenames[idx] {
		result[k] = v
	}
	return result
}

// AliasToOriginalKey returns minted alias -> response key the original query
// expects.
func (s *Session) AliasToOriginalKey() map[string]string {
	result := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		result[k] = v
	}
	return result
}

// ExpandedSelectionSet returns the fragment free selection tree of the query
// at idx. It must not be modified.
func (s *Session) ExpandedSelectionSet(idx int) ast.SelectionSet {
	return s.expanded[idx]
}

// FieldNames returns every field name seen during expansion, sorted.
func (s *Session) FieldNames() []string {
	result := make([]string, 0, len(s.fieldNames))
	for name := range s.fieldNames {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// FragmentNames returns the names of every fragment known to the session, sorted.
func (s *Session) FragmentNames() []string {
	result := make([]string, 0, len(s.fragments))
	for name := range s.fragments {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func (s *Session) QueryCount() int {
	return len(s.expanded)
}

func (s *Session) MarshalLog() interface{} {
	result := make(map[string]interface{})
	result["OperationName"] = s.OperationName
	result["VariableRenames"] = s.variableRenames
	result["Aliases"] = s.aliases
	result["Fragments"] = s.FragmentNames()
	return result
}

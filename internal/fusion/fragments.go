package fusion

import "github.com/vektah/gqlparser/v2/ast"

// fragmentTable indexes fragment definitions of every input document by name.
// Fragments share one namespace across fused queries; when two documents
// define the same name the one scanned last wins.
type fragmentTable map[string]*ast.FragmentDefinition

func buildFragmentTable(docs []*ast.QueryDocument) fragmentTable {
	table := make(fragmentTable)
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, fragment := range doc.Fragments {
			table[fragment.Name] = fragment
		}
	}
	return table
}

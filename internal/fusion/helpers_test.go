package fusion

import (
	"bytes"
	"context"
	"testing"

	testlogr "github.com/go-logr/logr/testing"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vvakame/gqlfusion/internal/log"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx := context.Background()
	return log.WithLogger(ctx, testlogr.NewTestLogger(t))
}

func parseQuery(t *testing.T, source string) *ast.QueryDocument {
	t.Helper()

	doc, gErr := parser.ParseQuery(&ast.Source{Input: source})
	if gErr != nil {
		t.Fatal(gErr)
	}

	return doc
}

func formatDocument(doc *ast.QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

// checkDocument compares doc with the document written in expected, both
// rendered by the same formatter.
func checkDocument(t *testing.T, doc *ast.QueryDocument, expected string) {
	t.Helper()

	want := formatDocument(parseQuery(t, expected))
	got := formatDocument(doc)
	if want != got {
		t.Errorf("unexpected document.\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func newTestSession(t *testing.T, ops ...*QueryOperation) *Session {
	t.Helper()

	s, err := NewSession(testContext(t), ops)
	if err != nil {
		t.Fatal(err)
	}

	return s
}

func op(t *testing.T, operationName string, source string, variables map[string]interface{}) *QueryOperation {
	t.Helper()

	if variables == nil {
		variables = make(map[string]interface{})
	}

	return &QueryOperation{
		Document:      parseQuery(t, source),
		Variables:     variables,
		OperationName: operationName,
	}
}

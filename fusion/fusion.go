// Package fusion combines several independent GraphQL queries into one
// request and splits the response to it back into one response per query.
package fusion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	core "github.com/vvakame/gqlfusion/internal/fusion"
)

type (
	QueryOperation        = core.QueryOperation
	UnknownFragmentError  = core.UnknownFragmentError
	MissingOperationError = core.MissingOperationError
	CyclicFragmentError   = core.CyclicFragmentError
)

// MergedQuery is the result of Merge. It stays valid for as long as
// responses to it need splitting, and is safe for concurrent use.
type MergedQuery struct {
	session  *core.Session
	rawQuery string
}

// Merge fuses ops into one query. ops themselves are not modified.
func Merge(ctx context.Context, ops []*QueryOperation) (*MergedQuery, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("no query operations to merge")
	}

	s, err := core.NewSession(ctx, ops)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(s.Document)

	return &MergedQuery{
		session:  s,
		rawQuery: buf.String(),
	}, nil
}

func (mq *MergedQuery) Document() *ast.QueryDocument {
	return mq.session.Document
}

func (mq *MergedQuery) Variables() map[string]interface{} {
	return mq.session.Variables
}

func (mq *MergedQuery) OperationName() string {
	return mq.session.OperationName
}

// RawQuery returns the merged document in GraphQL syntax.
func (mq *MergedQuery) RawQuery() string {
	return mq.rawQuery
}

// Describe returns a readable outline of how every query maps onto the
// merged query.
func (mq *MergedQuery) Describe() string {
	return mq.session.String()
}

// AliasToOriginalKey returns every alias minted to keep conflicting fields
// apart, mapped to the response key the original query used.
func (mq *MergedQuery) AliasToOriginalKey() map[string]string {
	return mq.session.AliasToOriginalKey()
}

// VariableRenames returns the old name -> new name map of the query at idx.
func (mq *MergedQuery) VariableRenames(idx int) map[string]string {
	return mq.session.VariableRenames(idx)
}

func (mq *MergedQuery) OperationContext() *graphql.OperationContext {
	doc := mq.session.Document
	return &graphql.OperationContext{
		RawQuery:      mq.rawQuery,
		Variables:     mq.session.Variables,
		OperationName: mq.session.OperationName,
		Doc:           doc,
		Operation:     doc.Operations[0],
		ResolverMiddleware: func(ctx context.Context, next graphql.Resolver) (res interface{}, err error) {
			return next(ctx)
		},
	}
}

// ParseData splits the data object of a merged response. The result has one
// element per merged query, in input order.
func (mq *MergedQuery) ParseData(data map[string]interface{}) []map[string]interface{} {
	return mq.session.SplitData(data)
}

// Parse splits a response to the merged query into one response per
// original query. Errors are routed by their path, and extensions are copied
// to every response.
func (mq *MergedQuery) Parse(resp *graphql.Response) ([]*graphql.Response, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}

	var data map[string]interface{}
	hasData := len(resp.Data) != 0
	if hasData {
		dec := json.NewDecoder(bytes.NewReader(resp.Data))
		// keep numbers as they are written
		dec.UseNumber()
		err := dec.Decode(&data)
		if err != nil {
			return nil, fmt.Errorf("response data must be an object: %w", err)
		}
	}

	splitData := mq.session.SplitData(data)
	splitErrs := mq.session.SplitErrors(resp.Errors)

	result := make([]*graphql.Response, 0, len(splitData))
	for idx, d := range splitData {
		r := &graphql.Response{
			Errors:     splitErrs[idx],
			Extensions: resp.Extensions,
		}
		if hasData {
			b, err := json.Marshal(d)
			if err != nil {
				return nil, err
			}
			r.Data = b
		}
		result = append(result, r)
	}

	return result, nil
}

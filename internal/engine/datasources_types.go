package engine

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
)

// DataSource executes one operation against an upstream GraphQL service.
// Failures are reported through the errors of the returned response.
type DataSource interface {
	Process(ctx context.Context, oc *graphql.OperationContext) *graphql.Response
}

var _ DataSource = (DataSourceFunc)(nil)

// DataSourceFunc adapts an ordinary function to DataSource.
type DataSourceFunc func(ctx context.Context, oc *graphql.OperationContext) *graphql.Response

func (f DataSourceFunc) Process(ctx context.Context, oc *graphql.OperationContext) *graphql.Response {
	return f(ctx, oc)
}

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vvakame/gqlfusion/fusion"
	"github.com/vvakame/gqlfusion/internal/engine"
	"github.com/vvakame/gqlfusion/internal/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vvakame/gqlfusion/gateway"

var _ engine.DataSource = (DataSource)(nil)

type DataSource interface {
	Process(ctx context.Context, oc *graphql.OperationContext) *graphql.Response
}

type Config struct {
	// DataSource receives the merged operations. When nil, a remote data
	// source posting to URL is used.
	DataSource DataSource
	URL        string
	Client     *http.Client
	Header     http.Header
}

// Gateway sends many queries to one upstream as a single merged query.
type Gateway struct {
	dataSource DataSource
	tracer     trace.Tracer
}

func NewGateway(ctx context.Context, cfg *Config) (*Gateway, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	ds := cfg.DataSource
	if ds == nil {
		if cfg.URL == "" {
			return nil, errors.New("either DataSource or URL is required")
		}
		ds = NewRemoteDataSource(cfg.URL, cfg.Client, cfg.Header)
	}

	log.Named(ctx, "gateway").V(1).Info("gateway created", "url", cfg.URL)

	return &Gateway{
		dataSource: ds,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Do merges ops, sends them upstream in one request and returns one response
// per operation in input order. An error is returned only when ops can't be
// merged or the upstream response can't be split.
func (g *Gateway) Do(ctx context.Context, ops []*fusion.QueryOperation) ([]*graphql.Response, error) {
	ctx, span := g.tracer.Start(ctx, "gqlfusion.batch", trace.WithAttributes(
		attribute.Int("gqlfusion.operations", len(ops)),
	))
	defer span.End()

	logger := log.Named(ctx, "gateway")

	mq, err := fusion.Merge(ctx, ops)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("graphql.operation.name", mq.OperationName()))

	logger.V(1).Info("forward merged query", "operationName", mq.OperationName(), "operations", len(ops))
	if logger.V(2).Enabled() {
		logger.V(2).Info("merged query outline", "outline", mq.Describe(), "query", mq.RawQuery())
	}

	resp := g.dataSource.Process(ctx, mq.OperationContext())
	if resp == nil {
		err = fmt.Errorf("data source returned no response for %s", mq.OperationName())
		span.RecordError(err)
		span.SetStatus(codes.Error, "no response")
		return nil, err
	}
	if len(resp.Errors) != 0 {
		logger.Info("upstream returned errors", "operationName", mq.OperationName(), "errors", len(resp.Errors))
	}

	responses, err := mq.Parse(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "split failed")
		return nil, err
	}

	return responses, nil
}

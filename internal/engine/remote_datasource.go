package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vvakame/gqlfusion/internal/log"
)

var _ DataSource = (*RemoteDataSource)(nil)

// RemoteDataSource posts operations as JSON to a GraphQL endpoint over HTTP.
type RemoteDataSource struct {
	URL string

	Client *http.Client
	// Header is added to every request.
	Header http.Header
}

type rawParams struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

func (ds *RemoteDataSource) Process(ctx context.Context, oc *graphql.OperationContext) *graphql.Response {
	logger := log.Named(ctx, "remote").WithValues("url", ds.URL, "operationName", oc.OperationName)

	hc := ds.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	failed := func(err error) *graphql.Response {
		logger.Error(err, "upstream request failed")
		return &graphql.Response{
			Errors: gqlerror.List{gqlerror.Errorf("upstream request failed: %s", err)},
		}
	}

	b, err := json.Marshal(&rawParams{
		Query:         oc.RawQuery,
		OperationName: oc.OperationName,
		Variables:     oc.Variables,
	})
	if err != nil {
		return failed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ds.URL, bytes.NewBuffer(b))
	if err != nil {
		return failed(err)
	}
	for key, values := range ds.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.V(1).Info("send request", "bytes", len(b))

	resp, err := hc.Do(req)
	if err != nil {
		return failed(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	b, err = io.ReadAll(resp.Body)
	if err != nil {
		return failed(err)
	}

	gqlResp := &graphql.Response{}
	err = json.Unmarshal(b, gqlResp)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			return failed(fmt.Errorf("unexpected response code: %d", resp.StatusCode))
		}
		return failed(err)
	}
	if resp.StatusCode != http.StatusOK && len(gqlResp.Data) == 0 && len(gqlResp.Errors) == 0 {
		return failed(fmt.Errorf("unexpected response code: %d", resp.StatusCode))
	}

	return gqlResp
}

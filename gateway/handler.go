package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vvakame/gqlfusion/fusion"
	"github.com/vvakame/gqlfusion/internal/log"
)

var _ http.Handler = (*Gateway)(nil)

const maxRequestBytes = 10 << 20

// ServeHTTP answers a POSTed JSON array of GraphQL requests with a JSON array
// of responses in the same order. A single request object is answered with a
// single response object. All valid requests are sent upstream as one query.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Named(ctx, "gateway")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, &graphql.Response{
			Errors: gqlerror.List{gqlerror.Errorf("only POST is supported")},
		})
		return
	}

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &graphql.Response{Errors: toErrorList(err)})
		return
	}

	params, batched, err := decodeParams(b)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &graphql.Response{Errors: toErrorList(err)})
		return
	}

	responses := make([]*graphql.Response, len(params))
	ops := make([]*fusion.QueryOperation, 0, len(params))
	indexes := make([]int, 0, len(params))
	for idx, p := range params {
		doc, gErr := parser.ParseQuery(&ast.Source{Name: "request", Input: p.Query})
		if gErr != nil {
			responses[idx] = &graphql.Response{Errors: toErrorList(gErr)}
			continue
		}
		ops = append(ops, &fusion.QueryOperation{
			Document:      doc,
			Variables:     p.Variables,
			OperationName: p.OperationName,
		})
		indexes = append(indexes, idx)
	}

	if len(ops) != 0 {
		results, err := g.Do(ctx, ops)
		if err != nil {
			logger.Error(err, "batch failed", "operations", len(ops))
			for _, idx := range indexes {
				responses[idx] = &graphql.Response{Errors: toErrorList(err)}
			}
		} else {
			for i, idx := range indexes {
				responses[idx] = results[i]
			}
		}
	}

	if !batched {
		writeJSON(w, http.StatusOK, responses[0])
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func decodeParams(b []byte) ([]*graphql.RawParams, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, false, errors.New("request body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if b[0] != '[' {
		p := &graphql.RawParams{}
		if err := dec.Decode(p); err != nil {
			return nil, false, err
		}
		return []*graphql.RawParams{p}, false, nil
	}

	var params []*graphql.RawParams
	if err := dec.Decode(&params); err != nil {
		return nil, true, err
	}
	if len(params) == 0 {
		return nil, true, errors.New("batch is empty")
	}
	for _, p := range params {
		if p == nil {
			return nil, true, errors.New("batch contains null")
		}
	}

	return params, true, nil
}

func toErrorList(err error) gqlerror.List {
	var list gqlerror.List
	if errors.As(err, &list) {
		return list
	}
	var gErr *gqlerror.Error
	if errors.As(err, &gErr) {
		return gqlerror.List{gErr}
	}

	return gqlerror.List{gqlerror.Errorf("%s", err.Error())}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package gateway

import (
	"net/http"

	"github.com/vvakame/gqlfusion/internal/engine"
)

// NewRemoteDataSource returns a DataSource posting operations to endpointURL.
// client and header may be nil.
func NewRemoteDataSource(endpointURL string, client *http.Client, header http.Header) DataSource {
	return &engine.RemoteDataSource{
		URL:    endpointURL,
		Client: client,
		Header: header.Clone(),
	}
}

package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

// forwardedHeaders are copied from the client request to the API.
var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept"}

type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if id := httpx.RequestID(ctx); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	} else if id := r.Header.Get(httpx.RequestIDHeader); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	return p.client.Do(req)
}

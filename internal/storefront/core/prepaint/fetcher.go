package prepaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

const maxDocument = 4 << 20

// HTTPFetcher reads documents from GET {baseURL}/content/{name}.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name Name) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/content/"+string(name), nil)
	if err != nil {
		return nil, fmt.Errorf("prepaint request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		kind := domain.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.KindTimeout
		}
		return nil, &domain.Error{Kind: kind, Code: "content_unreachable", Message: "Could not reach the content service.", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewError(domain.KindNotFound, "content_not_found", fmt.Sprintf("The content service has no %s.", name))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(domain.KindRejected, "content_error", fmt.Sprintf("The content service answered %d.", resp.StatusCode))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocument))
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Code: "content_unreachable", Message: "Could not read the content response.", Err: err}
	}
	if !json.Valid(b) {
		return nil, domain.NewError(domain.KindRejected, "content_invalid", fmt.Sprintf("The content service sent invalid JSON for %s.", name))
	}
	return b, nil
}

package orderapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

type cartResponse struct {
	Items []domain.CartLine `json:"items"`
}

func (c *Client) GetCart(ctx context.Context) ([]domain.CartLine, error) {
	var out cartResponse
	if _, err := c.do(ctx, http.MethodGet, "/cart", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) SetCartItem(ctx context.Context, line domain.CartLine) error {
	_, err := c.do(ctx, http.MethodPut, "/cart/items", line, nil)
	return err
}

func (c *Client) RemoveCartItem(ctx context.Context, key domain.CartKey) error {
	path := "/cart/items/" + url.PathEscape(key.ProductID) + "/" + url.PathEscape(key.Size)
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	var out []domain.Address
	if _, err := c.do(ctx, http.MethodGet, "/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAddress(ctx context.Context, a domain.Address) (domain.Address, error) {
	var out domain.Address
	if _, err := c.do(ctx, http.MethodPost, "/addresses", a, &out); err != nil {
		return domain.Address{}, err
	}
	return out, nil
}

func (c *Client) UpdateAddress(ctx context.Context, a domain.Address) (domain.Address, error) {
	var out domain.Address
	if _, err := c.do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(a.ID), a, &out); err != nil {
		return domain.Address{}, err
	}
	return out, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) SubscribeRestock(ctx context.Context, productID, size, color string) error {
	body := map[string]string{"productId": productID, "size": size, "color": color}
	_, err := c.do(ctx, http.MethodPost, "/restock-subscriptions", body, nil)
	return err
}

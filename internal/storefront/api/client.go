// Package api is the storefront's HTTP client for the backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "http://localhost:5000/api"

const fallbackMessage = "API request failed"

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client has no retries and no timeout of its own; callers bound requests
// through the context.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MultipartBody is sent as multipart/form-data instead of JSON.
type MultipartBody struct {
	Fields   map[string]string
	File     io.Reader
	FileName string
	// FileField defaults to "image".
	FileField string
}

func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if m.File != nil {
		field := m.FileField
		if field == "" {
			field = "image"
		}
		fw, err := w.CreateFormFile(field, m.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, m.File); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// envelope is the common response shape: {"success", "message", "data", ...}.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var (
		reader      io.Reader
		contentType = "application/json"
	)
	switch b := body.(type) {
	case nil:
	case *MultipartBody:
		r, ct, err := b.encode()
		if err != nil {
			return fmt.Errorf("encode multipart body: %w", err)
		}
		reader, contentType = r, ct
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: fallbackMessage}
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type ProductParams struct {
	Query    string
	Category string
	Featured *bool
	Limit    int
	Page     int
}

func (p ProductParams) values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.Featured != nil {
		v.Set("featured", strconv.FormatBool(*p.Featured))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}

type ProductList struct {
	Success bool              `json:"success"`
	Data    []*domain.Product `json:"data"`
	Count   int               `json:"count"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
}

type ProductResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *domain.Product `json:"data"`
}

type OrderResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	OrderID  string        `json:"orderId,omitempty"`
	Verified bool          `json:"verified,omitempty"`
	Data     *domain.Order `json:"data"`
}

type PaymentResponse struct {
	Success          bool                      `json:"success"`
	PaymentReference string                    `json:"paymentReference"`
	Data             *service.GeneratedPayment `json:"data"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) GetProducts(ctx context.Context, params ProductParams) (*ProductList, error) {
	path := "/products"
	if q := params.values().Encode(); q != "" {
		path += "?" + q
	}
	var out ProductList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out ProductResponse
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var out ProductResponse
	if err := c.do(ctx, http.MethodPost, "/products", p, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) CreateProductMultipart(ctx context.Context, body *MultipartBody) (*domain.Product, error) {
	var out ProductResponse
	if err := c.do(ctx, http.MethodPost, "/products", body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UploadImage creates p on the server with image as its picture; the server
// stores the file and fills in the image URL.
func (c *Client) UploadImage(ctx context.Context, p *domain.Product, image io.Reader, fileName string) (*domain.Product, error) {
	fields := map[string]string{
		"name":        p.Name,
		"category":    p.Category,
		"description": p.Description,
		"price":       p.Price.String(),
		"stock":       strconv.Itoa(p.Stock),
		"featured":    strconv.FormatBool(p.Featured),
	}
	return c.CreateProductMultipart(ctx, &MultipartBody{Fields: fields, File: image, FileName: fileName})
}

func (c *Client) UpdateProduct(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	var out ProductResponse
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	var out OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", o, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var out OrderResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, u domain.StatusUpdate) (*domain.Order, error) {
	var out OrderResponse
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID)+"/status", u, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GeneratePayment(ctx context.Context, req service.GeneratePaymentRequest) (*PaymentResponse, error) {
	var out PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/payments/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, orderID, reference string) (*domain.Order, error) {
	body := map[string]string{"orderId": orderID, "paymentReference": reference}
	var out OrderResponse
	if err := c.do(ctx, http.MethodPost, "/payments/verify", body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Subscribe(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/subscribe", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

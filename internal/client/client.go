// Package client is a typed HTTP client for the POS API, used by the
// waiter terminal and by tools that watch the event stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/events"
	"github.com/shopspring/decimal"
)

// APIError is a non-2xx response. Fields is set for validation failures.
type APIError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to one API instance on behalf of one staff member.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a Client. A nil httpClient uses a client with a 15s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// SetToken sets the access token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

// Login authenticates and keeps the returned access token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return err
	}
	c.token = resp.AccessToken
	return nil
}

// --- Tables ---

// ListTables returns the floor plan. degraded is true when the server could
// not read the registry and served its built-in plan.
func (c *Client) ListTables(ctx context.Context) (tables []domain.Table, degraded bool, err error) {
	hdr, err := c.doHeader(ctx, http.MethodGet, "/mesas", nil, &tables)
	if err != nil {
		return nil, false, err
	}
	return tables, hdr.Get("X-Mesas-Degradadas") == "true", nil
}

// Occupancy reports whether table number has an active order.
func (c *Client) Occupancy(ctx context.Context, number int) (bool, error) {
	var resp struct {
		Occupied bool `json:"ocupada"`
	}
	if err := c.do(ctx, http.MethodGet, "/mesas/"+strconv.Itoa(number)+"/ocupacion", nil, &resp); err != nil {
		return false, err
	}
	return resp.Occupied, nil
}

// --- Orders ---

// OrderInput is the body of a create or full update.
type OrderInput struct {
	TableNumber int           `json:"mesa_numero"`
	GroupSize   int           `json:"tamano_grupo"`
	Notes       string        `json:"notas"`
	Items       []domain.Item `json:"items"`
}

// CreateOrder persists a draft. The server assigns the id and sets Pendiente.
func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodPost, "/pedidos", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrder rewrites a persisted order.
func (c *Client) UpdateOrder(ctx context.Context, id int64, in OrderInput) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodPut, orderPath(id), in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodGet, orderPath(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// RemoveLastItem pops the newest item of a persisted order.
func (c *Client) RemoveLastItem(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodDelete, orderPath(id)+"/ultimo_item", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) SetStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error) {
	var o domain.Order
	body := map[string]string{"estado": string(status)}
	if err := c.do(ctx, http.MethodPatch, orderPath(id)+"/estado", body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Pay settles an order and returns the change.
func (c *Client) Pay(ctx context.Context, id int64, method string, received decimal.Decimal) (*domain.Order, decimal.Decimal, error) {
	var resp struct {
		Order  domain.Order    `json:"pedido"`
		Change decimal.Decimal `json:"cambio"`
	}
	body := map[string]interface{}{"metodo_pago": method, "monto_recibido": received}
	if err := c.do(ctx, http.MethodPost, orderPath(id)+"/pago", body, &resp); err != nil {
		return nil, decimal.Zero, err
	}
	return &resp.Order, resp.Change, nil
}

func (c *Client) KitchenQueue(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/pedidos/cocina", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CashierQueue(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/pedidos/caja", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func orderPath(id int64) string {
	return "/pedidos/" + strconv.FormatInt(id, 10)
}

// --- Events ---

// Watch subscribes to topic over WebSocket and calls handle for every event
// until ctx is cancelled or the connection drops. It returns nil on cancel.
func (c *Client) Watch(ctx context.Context, topic string, handle func(events.Event)) error {
	u, err := url.Parse(c.baseURL + "/ws/" + topic)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: "websocket handshake failed"}
		}
		return fmt.Errorf("dial %s: %w", topic, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var e events.Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		handle(e)
	}
}

// --- Transport ---

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.doHeader(ctx, method, path, body, out)
	return err
}

func (c *Client) doHeader(ctx context.Context, method, path string, body, out interface{}) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

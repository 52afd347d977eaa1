package provision

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/google/uuid"
)

// Sentinel errors for the gateway's well-known rejection codes.  Callers
// distinguish these with errors.Is; any other non-2xx response surfaces as
// a generic *APIError.
var (
    // ErrOverloaded means the chosen provider has no capacity left (429).
    ErrOverloaded = errors.New("provider overloaded")
    // ErrForbidden means this client may not create the requested server (403).
    ErrForbidden = errors.New("client forbidden")
    // ErrAlreadyClosed means the server was gone before the close request (450).
    ErrAlreadyClosed = errors.New("server already closed")
    // ErrCloseInProgress means another close request is already running (451).
    ErrCloseInProgress = errors.New("server close already in progress")
    // ErrServerNotFound means the gateway has no record of the server id.
    ErrServerNotFound = errors.New("server not found")
)

// APIError carries an unexpected gateway response.
type APIError struct {
    Status int
    Body   string
}

func (e *APIError) Error() string {
    return fmt.Sprintf("gateway responded %d: %s", e.Status, e.Body)
}

// Client talks to the provisioning gateway.  Every create request has the
// booking callback address injected so status changes come back to us.
type Client struct {
    host        string
    secret      string
    callbackURL string
    http        *http.Client
}

// NewClient builds a gateway client.  host is the base URL of the
// gateway, secret the bearer token, callbackURL the address of our
// /booking/callback endpoint.
func NewClient(host, secret, callbackURL string) *Client {
    return &Client{
        host:        host,
        secret:      secret,
        callbackURL: callbackURL,
        http:        &http.Client{Timeout: 30 * time.Second},
    }
}

// CreateServer requests a new server instance.  429 maps to
// ErrOverloaded, 403 to ErrForbidden.
func (c *Client) CreateServer(ctx context.Context, req *Server) (*Server, error) {
    req.Data.CallbackURL = c.callbackURL

    body, err := json.Marshal(req)
    if err != nil {
        return nil, err
    }
    httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/v1/servers", bytes.NewReader(body))
    if err != nil {
        return nil, err
    }
    httpReq.Header.Set("Content-Type", "application/json")

    var server Server
    if err := c.do(httpReq, &server); err != nil {
        return nil, err
    }
    return &server, nil
}

// CloseServer requests teardown of a server.  450 maps to
// ErrAlreadyClosed, 451 to ErrCloseInProgress.
func (c *Client) CloseServer(ctx context.Context, id string) error {
    req, err := c.newRequest(ctx, http.MethodDelete, "/api/v1/servers/"+id, nil)
    if err != nil {
        return err
    }
    return c.do(req, nil)
}

// GetServerInfo fetches the current server record.
func (c *Client) GetServerInfo(ctx context.Context, id string) (*Server, error) {
    req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/servers/"+id, nil)
    if err != nil {
        return nil, err
    }
    var server Server
    if err := c.do(req, &server); err != nil {
        return nil, err
    }
    return &server, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
    req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
    if err != nil {
        return nil, err
    }
    req.Header.Set("Authorization", "Bearer "+c.secret)
    req.Header.Set("X-Request-ID", uuid.NewString())
    return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
    res, err := c.http.Do(req)
    if err != nil {
        return err
    }
    defer res.Body.Close()

    if res.StatusCode >= 200 && res.StatusCode < 300 {
        if out == nil {
            return nil
        }
        return json.NewDecoder(res.Body).Decode(out)
    }

    switch res.StatusCode {
    case http.StatusTooManyRequests:
        return ErrOverloaded
    case http.StatusForbidden:
        return ErrForbidden
    case http.StatusNotFound:
        return ErrServerNotFound
    case 450:
        return ErrAlreadyClosed
    case 451:
        return ErrCloseInProgress
    }

    raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
    return &APIError{Status: res.StatusCode, Body: string(raw)}
}

// Package notify delivers user-facing status messages.  The booking
// engine depends only on "send or edit a message to a user or channel";
// the concrete sink here relays to a chat service over HTTP.
package notify

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/iliyamo/game-server-booking/internal/model"
)

// Severity classifies a status message for rendering downstream.
type Severity string

const (
    Info    Severity = "info"
    Success Severity = "success"
    Warning Severity = "warning"
    Error   Severity = "error"
)

// ErrDMRefused means the user does not accept direct messages.  Callers
// fall back to a channel notice.
var ErrDMRefused = errors.New("user refuses direct messages")

// ErrMessageGone means the referenced message no longer exists and
// cannot be edited.  Callers fall back to posting a fresh message.
var ErrMessageGone = errors.New("message no longer exists")

// Notifier sends and edits status messages.  Message references are
// opaque (channel, id) pairs stored on bookings for later edit-in-place.
type Notifier interface {
    Send(ctx context.Context, channel, user string, severity Severity, text string) (*model.MessageRef, error)
    Edit(ctx context.Context, ref model.MessageRef, severity Severity, text string) (*model.MessageRef, error)
    SendDM(ctx context.Context, user string, severity Severity, text string) error
}

// Relay implements Notifier against the chat relay's HTTP API.
type Relay struct {
    base  string
    token string
    http  *http.Client
}

// NewRelay builds a Relay for the given base URL and bearer token.
func NewRelay(base, token string) *Relay {
    return &Relay{
        base:  base,
        token: token,
        http:  &http.Client{Timeout: 10 * time.Second},
    }
}

type messagePayload struct {
    User     string   `json:"user,omitempty"`
    Severity Severity `json:"severity"`
    Text     string   `json:"text"`
}

type messageResponse struct {
    ID      string `json:"id"`
    Channel string `json:"channel"`
}

// Send posts a new message to a channel, mentioning the user.
func (r *Relay) Send(ctx context.Context, channel, user string, severity Severity, text string) (*model.MessageRef, error) {
    path := fmt.Sprintf("/channels/%s/messages", channel)
    var res messageResponse
    if err := r.call(ctx, http.MethodPost, path, messagePayload{User: user, Severity: severity, Text: text}, &res); err != nil {
        return nil, err
    }
    return &model.MessageRef{Channel: res.Channel, ID: res.ID}, nil
}

// Edit replaces the content of an existing message in place.
func (r *Relay) Edit(ctx context.Context, ref model.MessageRef, severity Severity, text string) (*model.MessageRef, error) {
    path := fmt.Sprintf("/channels/%s/messages/%s", ref.Channel, ref.ID)
    var res messageResponse
    if err := r.call(ctx, http.MethodPatch, path, messagePayload{Severity: severity, Text: text}, &res); err != nil {
        return nil, err
    }
    return &model.MessageRef{Channel: ref.Channel, ID: ref.ID}, nil
}

// SendDM delivers a private message to a user.
func (r *Relay) SendDM(ctx context.Context, user string, severity Severity, text string) error {
    path := fmt.Sprintf("/users/%s/dm", user)
    return r.call(ctx, http.MethodPost, path, messagePayload{Severity: severity, Text: text}, nil)
}

func (r *Relay) call(ctx context.Context, method, path string, payload any, out any) error {
    body, err := json.Marshal(payload)
    if err != nil {
        return err
    }
    req, err := http.NewRequestWithContext(ctx, method, r.base+path, bytes.NewReader(body))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Authorization", "Bearer "+r.token)

    res, err := r.http.Do(req)
    if err != nil {
        return err
    }
    defer res.Body.Close()

    switch {
    case res.StatusCode >= 200 && res.StatusCode < 300:
        if out == nil {
            return nil
        }
        return json.NewDecoder(res.Body).Decode(out)
    case res.StatusCode == http.StatusForbidden:
        return ErrDMRefused
    case res.StatusCode == http.StatusNotFound:
        return ErrMessageGone
    default:
        return fmt.Errorf("notify: %s %s responded %d", method, path, res.StatusCode)
    }
}

// Package provision is the client side of the external server
// provisioning API (lighthouse).  The booking engine depends on this
// contract only: create/close/get plus the status values delivered back
// through the booking callback.
package provision

import "strings"

// ServerStatus is the remote service's view of a server instance.  Only
// idle, closed and failed are delivered through the booking callback; the
// remaining values appear when polling server info.
type ServerStatus string

// ParseServerStatus maps a wire token to a ServerStatus.  The callback
// delivers lowercase tokens while server records carry uppercase, so
// comparison is case-insensitive.
func ParseServerStatus(raw string) ServerStatus {
    return ServerStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

const (
    ServerIdle         ServerStatus = "IDLE"
    ServerClosed       ServerStatus = "CLOSED"
    ServerFailed       ServerStatus = "FAILED"
    ServerClosing      ServerStatus = "CLOSING"
    ServerAllocating   ServerStatus = "ALLOCATING"
    ServerWaiting      ServerStatus = "WAITING"
    ServerDeallocating ServerStatus = "DEALLOCATING"
    ServerRunning      ServerStatus = "RUNNING"
)

// Live reports whether the server is usable by players, as opposed to
// being set up or torn down.
func (s ServerStatus) Live() bool {
    switch s {
    case ServerClosed, ServerClosing, ServerAllocating, ServerWaiting, ServerDeallocating, ServerFailed:
        return false
    }
    return true
}

// ServerData is the free-form data bag sent with a create request and
// echoed back on server records.  Close thresholds and customization
// fields are resolved by the engine before the request is sent.
type ServerData struct {
    CallbackURL     string `json:"callbackUrl,omitempty"`
    CloseMinPlayers int    `json:"closeMinPlayers,omitempty"`
    CloseIdleTime   int    `json:"closeIdleTime,omitempty"`
    CloseWaitTime   int    `json:"closeWaitTime,omitempty"`
    Password        string `json:"password,omitempty"`
    RconPassword    string `json:"rconPassword,omitempty"`
    TvPassword      string `json:"tvPassword,omitempty"`
    ServerName      string `json:"servername,omitempty"`
    TvName          string `json:"tvName,omitempty"`
    Map             string `json:"map,omitempty"`
    GitRepository   string `json:"gitRepository,omitempty"`
    GitDeployKey    string `json:"gitDeployKey,omitempty"`
    SdrEnable       bool   `json:"sdrEnable"`
    SdrIP           string `json:"sdrIp,omitempty"`
    SdrPort         int    `json:"sdrPort,omitempty"`
    SdrTvPort       int    `json:"sdrTvPort,omitempty"`
    TvPort          int    `json:"tvPort,omitempty"`
    HatchPassword   string `json:"hatchPassword,omitempty"`
}

// Server is the provisioning service's server record.  On create requests
// only Game, Region, Provider and Data are set; responses carry the rest.
type Server struct {
    ID       string       `json:"_id,omitempty"`
    Client   string       `json:"client,omitempty"`
    Game     string       `json:"game"`
    Region   string       `json:"region"`
    Provider string       `json:"provider"`
    Status   ServerStatus `json:"status,omitempty"`
    IP       string       `json:"ip,omitempty"`
    Port     int          `json:"port,omitempty"`
    TvPort   int          `json:"tvPort,omitempty"`
    Data     ServerData   `json:"data"`
}

package provision

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
)

// HatchPort derives the sidecar API port from the game port.  The sidecar
// listens two ports above the game port, except for the default game port
// where 27016 is SourceTV.
func HatchPort(gamePort int) int {
    if gamePort == 27015 {
        return 27017
    }
    return gamePort + 2
}

// HatchURL builds the sidecar API URL for a server, with its password
// attached as a query parameter.
func HatchURL(server *Server, api string) string {
    if len(api) > 0 && api[0] == '/' {
        api = api[1:]
    }
    return fmt.Sprintf("http://%s:%d/%s?password=%s",
        server.IP, HatchPort(server.Port), api, url.QueryEscape(server.Data.HatchPassword))
}

// ListServerDemos fetches the demo file listing from the server's sidecar.
func (c *Client) ListServerDemos(ctx context.Context, id string) ([]string, error) {
    return c.listHatchFiles(ctx, id, "files/demos")
}

// ListServerLogs fetches the log file listing from the server's sidecar.
func (c *Client) ListServerLogs(ctx context.Context, id string) ([]string, error) {
    return c.listHatchFiles(ctx, id, "files/logs")
}

func (c *Client) listHatchFiles(ctx context.Context, id, api string) ([]string, error) {
    server, err := c.GetServerInfo(ctx, id)
    if err != nil {
        return nil, err
    }
    req, err := c.newRequest(ctx, "GET", "", nil)
    if err != nil {
        return nil, err
    }
    req.URL, err = url.Parse(HatchURL(server, api))
    if err != nil {
        return nil, err
    }
    // the sidecar authenticates via the password query param, not the
    // gateway bearer token
    req.Header.Del("Authorization")

    res, err := c.http.Do(req)
    if err != nil {
        return nil, err
    }
    defer res.Body.Close()
    if res.StatusCode != 200 {
        return nil, &APIError{Status: res.StatusCode}
    }
    var files []string
    if err := json.NewDecoder(res.Body).Decode(&files); err != nil {
        return nil, err
    }
    return files, nil
}

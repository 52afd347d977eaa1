package provision

import (
    "context"
    "encoding/binary"
    "errors"
    "fmt"
    "io"
    "net"
    "time"
)

// DefaultRconTimeout bounds a whole remote command session: dial,
// authenticate, execute, read.
const DefaultRconTimeout = 5 * time.Second

// ErrRconAuthFailed means the server rejected the RCON password.
var ErrRconAuthFailed = errors.New("rcon authentication failed")

// Source RCON packet types.
const (
    rconAuth         int32 = 3
    rconAuthResponse int32 = 2
    rconExec         int32 = 2
    rconResponse     int32 = 0
)

// ExecRconCommand opens a Source RCON session against addr, authenticates
// with password, sends a single command and returns its response.  The
// whole session is bounded by DefaultRconTimeout (or the context deadline,
// whichever is earlier).  A timeout is reported as a plain error, not
// retried.
func ExecRconCommand(ctx context.Context, addr, password, command string) (string, error) {
    deadline := time.Now().Add(DefaultRconTimeout)
    if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
        deadline = d
    }

    dialer := net.Dialer{Deadline: deadline}
    conn, err := dialer.DialContext(ctx, "tcp", addr)
    if err != nil {
        return "", fmt.Errorf("rcon dial %s: %w", addr, err)
    }
    defer conn.Close()
    if err := conn.SetDeadline(deadline); err != nil {
        return "", err
    }

    if err := writeRconPacket(conn, 1, rconAuth, password); err != nil {
        return "", err
    }
    // servers may send an empty response packet before the auth response
    for {
        id, typ, _, err := readRconPacket(conn)
        if err != nil {
            return "", err
        }
        if typ != rconAuthResponse {
            continue
        }
        if id == -1 {
            return "", ErrRconAuthFailed
        }
        break
    }

    if err := writeRconPacket(conn, 2, rconExec, command); err != nil {
        return "", err
    }
    _, _, body, err := readRconPacket(conn)
    if err != nil {
        return "", err
    }
    return body, nil
}

func writeRconPacket(conn net.Conn, id, typ int32, body string) error {
    // size covers id, type, body and the two trailing nulls
    size := int32(4 + 4 + len(body) + 2)
    buf := make([]byte, 4+size)
    binary.LittleEndian.PutUint32(buf[0:], uint32(size))
    binary.LittleEndian.PutUint32(buf[4:], uint32(id))
    binary.LittleEndian.PutUint32(buf[8:], uint32(typ))
    copy(buf[12:], body)
    _, err := conn.Write(buf)
    return err
}

func readRconPacket(conn net.Conn) (id, typ int32, body string, err error) {
    var header [4]byte
    if _, err = io.ReadFull(conn, header[:]); err != nil {
        return
    }
    size := int32(binary.LittleEndian.Uint32(header[:]))
    if size < 10 || size > 4110 {
        err = fmt.Errorf("rcon packet size %d out of range", size)
        return
    }
    payload := make([]byte, size)
    if _, err = io.ReadFull(conn, payload); err != nil {
        return
    }
    id = int32(binary.LittleEndian.Uint32(payload[0:]))
    typ = int32(binary.LittleEndian.Uint32(payload[4:]))
    body = string(payload[8 : len(payload)-2])
    return
}

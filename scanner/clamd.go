package scanner

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"civic311-be/models"
)

const chunkSize = 64 * 1024

// Clamd speaks the clamd INSTREAM protocol over TCP.
type Clamd struct {
	addr    string
	timeout time.Duration
}

// NewClamd returns a scanner for host:port. An empty host yields a scanner
// that always reports ErrUnavailable.
func NewClamd(host string, port int, timeout time.Duration) *Clamd {
	if host == "" {
		return &Clamd{timeout: timeout}
	}
	return &Clamd{addr: net.JoinHostPort(host, fmt.Sprint(port)), timeout: timeout}
}

func (c *Clamd) Scan(ctx context.Context, r io.Reader) (Verdict, error) {
	if c.addr == "" {
		return Verdict{}, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	buf := make([]byte, chunkSize)
	var size [4]byte
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(size[:], uint32(n))
			if _, err := conn.Write(size[:]); err != nil {
				return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return Verdict{}, fmt.Errorf("read attachment: %w", rerr)
		}
	}
	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := conn.Write(size[:]); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reply, err := bufio.NewReader(conn).ReadString(0)
	if err != nil && reply == "" {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseReply(reply)
}

// parseReply reads "stream: OK", "stream: <name> FOUND" or "<msg> ERROR".
func parseReply(reply string) (Verdict, error) {
	reply = strings.TrimSpace(strings.TrimRight(reply, "\x00"))
	reply = strings.TrimPrefix(reply, "stream: ")

	switch {
	case reply == "OK":
		return Verdict{State: models.ScanClean, Detail: "Clean"}, nil
	case strings.HasSuffix(reply, " FOUND"):
		return Verdict{State: models.ScanInfected, Detail: strings.TrimSuffix(reply, " FOUND")}, nil
	default:
		return Verdict{}, fmt.Errorf("%w: clamd replied %q", ErrUnavailable, reply)
	}
}

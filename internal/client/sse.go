package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/campaign-pulse/tui/internal/logging"
)

const maxEventBytes = 1 << 20

// ErrStreamEnded is reported when the server closes a stream cleanly.
var ErrStreamEnded = errors.New("stream ended by server")

// SSETransport opens text/event-stream connections.
type SSETransport struct {
	httpc *http.Client
	log   zerolog.Logger
}

// NewSSETransport uses httpc, or a client without a timeout when nil. The
// client must not set Timeout: it would cut every long-lived stream.
func NewSSETransport(httpc *http.Client) *SSETransport {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &SSETransport{httpc: httpc, log: logging.With("sse")}
}

type sseConn struct {
	cancel context.CancelFunc
}

func (c *sseConn) Close() error {
	c.cancel()
	return nil
}

// Open starts the request on its own goroutine and returns immediately.
func (t *SSETransport) Open(url string, h Handlers) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	go t.run(ctx, url, h)
	return &sseConn{cancel: cancel}
}

func (t *SSETransport) run(ctx context.Context, url string, h Handlers) {
	fail := func(err error) {
		if ctx.Err() == nil {
			h.OnError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fail(err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.httpc.Do(req)
	if err != nil {
		fail(err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("stream: unexpected status %d", resp.StatusCode))
		return
	}
	if ctx.Err() != nil {
		return
	}
	h.OnOpen()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 4096), maxEventBytes)

	var data bytes.Buffer
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			if data.Len() > 0 && ctx.Err() == nil {
				h.OnMessage(bytes.Clone(data.Bytes()))
			}
			data.Reset()
			continue
		}
		field, value := parseField(line)
		switch field {
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(value)
		case "event", "id", "retry", "":
			// Named events, ids, retry hints and comments are not used.
		default:
			t.log.Debug().Str("field", field).Msg("ignoring unknown sse field")
		}
	}

	if err := sc.Err(); err != nil {
		fail(err)
		return
	}
	fail(ErrStreamEnded)
}

// parseField splits "field: value". A line starting with ':' is a comment
// and yields an empty field.
func parseField(line []byte) (string, []byte) {
	if line[0] == ':' {
		return "", nil
	}
	name, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		return string(name), nil
	}
	value = bytes.TrimPrefix(value, []byte(" "))
	return string(name), value
}

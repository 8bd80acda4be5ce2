// Package dispatch sends rotate requests from the remote to the
// controller and records each outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/zortness/mag-loop-controller/internal/debug"
)

// Transport failure codes, following the ESP32 HTTPClient numbering.
const (
	CodeConnectionRefused = -1
	CodeReadTimeout       = -11
)

// maxPayload bounds how much of a response body is read for logging.
const maxPayload = 4 << 10

// Doer performs HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AddressResolver returns the current address for a hostname.
type AddressResolver interface {
	Resolve(ctx context.Context, hostname string) string
}

// Recorder receives one line per completed attempt.
type Recorder interface {
	Add(text string)
}

// StatusSink shows a transient status line while a request is in flight.
type StatusSink interface {
	SetStatus(text string)
}

// Outcome is the classified result of one dispatch.
type Outcome struct {
	Intent  string // "CW 15.00"
	URL     string
	Code    int // HTTP status, or a negative transport code
	Payload string
}

// OK reports whether any HTTP response was received.
func (o Outcome) OK() bool { return o.Code > 0 }

// Dispatcher builds and sends rotate requests. It blocks the caller for
// the whole round trip.
type Dispatcher struct {
	client  Doer
	hosts   AddressResolver
	history Recorder
	status  StatusSink
	port    int
}

// New creates a dispatcher that reaches controllers on port.
func New(client Doer, hosts AddressResolver, history Recorder, status StatusSink, port int) *Dispatcher {
	if port <= 0 {
		port = 80
	}
	return &Dispatcher{
		client:  client,
		hosts:   hosts,
		history: history,
		status:  status,
		port:    port,
	}
}

// Intent formats the direction and size of a move, e.g. "CCW 15.00".
func Intent(degrees float64) string {
	dir := "CW"
	if degrees < 0 {
		dir = "CCW"
	}
	return fmt.Sprintf("%s %.2f", dir, math.Abs(degrees))
}

// Dispatch asks the controller at hostname to rotate by degrees. Any
// HTTP response counts as success and records the intent; a transport
// failure records "Error code <n>".
func (d *Dispatcher) Dispatch(ctx context.Context, hostname string, degrees float64) Outcome {
	addr := d.hosts.Resolve(ctx, hostname)
	out := Outcome{
		Intent: Intent(degrees),
		URL:    fmt.Sprintf("http://%s/rotate?deg=%.2f", net.JoinHostPort(addr, strconv.Itoa(d.port)), degrees),
	}
	if d.status != nil {
		d.status.SetStatus(out.Intent)
	}

	debug.Live("calling %s", out.URL)
	out.Code, out.Payload = d.get(ctx, out.URL)

	if out.OK() {
		debug.Live("Response: %d", out.Code)
		debug.Verbose("Payload: %s", out.Payload)
		d.history.Add(out.Intent)
	} else {
		debug.Live("Error code: %d", out.Code)
		d.history.Add("Error code " + strconv.Itoa(out.Code))
	}
	return out
}

func (d *Dispatcher) get(ctx context.Context, url string) (int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		debug.Error(err)
		return CodeConnectionRefused, ""
	}
	resp, err := d.client.Do(req)
	if err != nil {
		debug.Error(err)
		return classify(err), ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		debug.Error(fmt.Errorf("read payload: %w", err))
	}
	return resp.StatusCode, string(body)
}

// classify maps a transport error to a negative code.
func classify(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeReadTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return CodeReadTimeout
	}
	return CodeConnectionRefused
}

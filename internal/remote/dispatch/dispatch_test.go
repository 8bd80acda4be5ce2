package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/remote/history"
	"github.com/zortness/mag-loop-controller/internal/remote/hostcache"
)

type fixedHosts struct {
	addr  string
	calls int
}

func (f *fixedHosts) Resolve(context.Context, string) string {
	f.calls++
	return f.addr
}

type statusLine struct{ text string }

func (s *statusLine) SetStatus(text string) { s.text = text }

type errDoer struct{ err error }

func (d errDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// controller starts a test server and returns its host and port.
func controller(t *testing.T, h http.HandlerFunc) (string, int) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return u.Hostname(), port
}

func TestIntent(t *testing.T) {
	cases := map[float64]string{
		15:   "CW 15.00",
		-15:  "CCW 15.00",
		3.6:  "CW 3.60",
		-180: "CCW 180.00",
		0:    "CW 0.00",
	}
	for deg, want := range cases {
		if got := Intent(deg); got != want {
			t.Errorf("Intent(%v) = %q, want %q", deg, got, want)
		}
	}
}

func TestDispatch_Success(t *testing.T) {
	var gotQuery string
	host, port := controller(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Path + "?" + r.URL.RawQuery
		io.WriteString(w, "Stepping CCW -15.00 deg (8 full steps, 2 partials)")
	})
	log := history.New(history.DefaultCapacity)
	status := &statusLine{}
	d := New(http.DefaultClient, &fixedHosts{addr: host}, log, status, port)

	out := d.Dispatch(context.Background(), "magloopcontroller20", -15)

	if !out.OK() || out.Code != http.StatusOK {
		t.Fatalf("outcome = %+v, want 200", out)
	}
	if gotQuery != "/rotate?deg=-15.00" {
		t.Errorf("request = %q, want /rotate?deg=-15.00", gotQuery)
	}
	if !strings.Contains(out.Payload, "8 full steps") {
		t.Errorf("payload = %q", out.Payload)
	}
	if status.text != "CCW 15.00" {
		t.Errorf("status = %q, want intent", status.text)
	}
	if e := log.Entries(); len(e) != 1 || e[0].Text != "CCW 15.00" {
		t.Errorf("history = %+v", e)
	}
}

func TestDispatch_ErrorStatusCountsAsSuccess(t *testing.T) {
	host, port := controller(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
	log := history.New(history.DefaultCapacity)
	d := New(http.DefaultClient, &fixedHosts{addr: host}, log, nil, port)

	out := d.Dispatch(context.Background(), "h", 5)

	if !out.OK() || out.Code != http.StatusNotFound {
		t.Errorf("outcome = %+v, want 404 treated as success", out)
	}
	if e := log.Entries(); e[0].Text != "CW 5.00" {
		t.Errorf("history = %+v", e)
	}
}

func TestDispatch_TransportFailureRecordsCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"refused", errors.New("connect: connection refused"), CodeConnectionRefused},
		{"net_timeout", &url.Error{Op: "Get", URL: "x", Err: timeoutErr{}}, CodeReadTimeout},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), CodeReadTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := history.New(history.DefaultCapacity)
			d := New(errDoer{tc.err}, &fixedHosts{addr: "0.0.0.0"}, log, nil, 80)

			out := d.Dispatch(context.Background(), "h", 15)

			if out.OK() || out.Code != tc.code {
				t.Errorf("outcome = %+v, want code %d", out, tc.code)
			}
			want := fmt.Sprintf("Error code %d", tc.code)
			if e := log.Entries(); len(e) != 1 || e[0].Text != want {
				t.Errorf("history = %+v, want %q", e, want)
			}
		})
	}
}

func TestDispatch_URLUsesResolvedAddress(t *testing.T) {
	d := New(errDoer{errors.New("x")}, &fixedHosts{addr: "192.168.0.7"}, history.New(1), nil, 0)
	out := d.Dispatch(context.Background(), "h", 7.2)
	if out.URL != "http://192.168.0.7:80/rotate?deg=7.20" {
		t.Errorf("URL = %q", out.URL)
	}
}

// ---------- with the host cache ----------

type countingResolver struct {
	addr  string
	calls int
	order *[]string
}

func (r *countingResolver) Resolve(context.Context, string) (string, error) {
	r.calls++
	*r.order = append(*r.order, "resolve")
	return r.addr, nil
}

type orderedDoer struct {
	order *[]string
}

func (d orderedDoer) Do(*http.Request) (*http.Response, error) {
	*d.order = append(*d.order, "http")
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok"))}, nil
}

func TestDispatch_ExpiredCacheResolvesOnceBeforeRequest(t *testing.T) {
	var order []string
	log := history.New(history.DefaultCapacity)
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	res := &countingResolver{addr: "10.0.0.9", order: &order}
	cache := hostcache.New(res, log, clk, hostcache.DefaultTTL)
	d := New(orderedDoer{&order}, cache, log, nil, 80)
	ctx := context.Background()

	d.Dispatch(ctx, "h", 15)
	d.Dispatch(ctx, "h", 15)
	clk.Advance(hostcache.DefaultTTL + time.Second)
	d.Dispatch(ctx, "h", -15)

	want := []string{"resolve", "http", "http", "resolve", "http"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	texts := []string{}
	for _, e := range log.Entries() {
		texts = append(texts, e.Text)
	}
	wantHistory := []string{"controller: 10.0.0.9", "CW 15.00", "CW 15.00", "controller: 10.0.0.9", "CCW 15.00"}
	if !reflect.DeepEqual(texts, wantHistory) {
		t.Errorf("history = %v, want %v", texts, wantHistory)
	}
}

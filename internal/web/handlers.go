package web

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/logic/steps"
)

const (
	paramSteps   = "steps"
	paramDir     = "dir"
	paramDegrees = "deg"
	paramMessage = "message"
)

// Mover executes a step plan. It blocks until the motion is complete.
type Mover interface {
	Execute(p steps.Plan) error
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	translator *steps.Translator
	mover      Mover
	feed       *StatusFeed
	heartbeat  time.Duration
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(translator *steps.Translator, mover Mover, feed *StatusFeed) *Handlers {
	return &Handlers{
		translator: translator,
		mover:      mover,
		feed:       feed,
		heartbeat:  30 * time.Second,
	}
}

// parseNumber reads a leading decimal number the way the firmware did:
// "12.5abc" is 12.5, anything unparsable or non-finite is 0.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(numericPrefix(strings.TrimSpace(s)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// numericPrefix returns the longest leading [sign] digits [. digits]
// [e [sign] digits] span of s, or "" if it holds no digit.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}
	return s[:i]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// HandleIndex identifies the controller.
func (h *Handlers) HandleIndex(c *gin.Context) {
	c.String(http.StatusOK, "Mag Loop Controller")
}

// HandleEcho handles GET /get?message=<m>.
func (h *Handlers) HandleEcho(c *gin.Context) {
	message, ok := c.GetQuery(paramMessage)
	if !ok {
		message = "No message sent"
	}
	c.String(http.StatusOK, "Hello, GET: "+message)
}

// HandleStep handles GET /step?steps=<n>&dir=<cw|ccw>. A dir starting
// with "ccw" negates the step count.
func (h *Handlers) HandleStep(c *gin.Context) {
	n := parseNumber(c.Query(paramSteps))
	if strings.HasPrefix(c.Query(paramDir), "ccw") {
		n = -n
	}

	plan := h.translator.Translate(steps.Request{Magnitude: n, Unit: steps.UnitSteps})
	msg := fmt.Sprintf("Stepping %s %d full steps, %d partial steps",
		plan.Direction, plan.FullSteps, plan.PartialSteps)

	h.respondAndMove(c, msg, plan)
}

// HandleRotate handles GET /rotate?deg=<degrees>.
func (h *Handlers) HandleRotate(c *gin.Context) {
	deg := parseNumber(c.Query(paramDegrees))

	plan := h.translator.Translate(steps.Request{Magnitude: deg, Unit: steps.UnitDegrees})
	msg := fmt.Sprintf("Stepping %s %.2f deg (%d full steps, %d partials)",
		plan.Direction, deg, plan.FullSteps, plan.PartialSteps)

	h.respondAndMove(c, msg, plan)
}

// respondAndMove sends the summary before pulsing, then blocks the
// handler until the sequence completes.
func (h *Handlers) respondAndMove(c *gin.Context, msg string, plan steps.Plan) {
	debug.Live("%s %s: %s", c.Request.Method, c.Request.URL.RequestURI(), msg)
	c.String(http.StatusOK, msg)
	c.Writer.Flush()

	h.feed.Publish("info", msg)
	if err := h.mover.Execute(plan); err != nil {
		debug.Error(err)
		h.feed.Publish("error", "Move failed: "+err.Error())
		return
	}
	h.feed.Publish("info", "Done")
}

// HandleNotFound answers every unmatched route.
func (h *Handlers) HandleNotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "Not found")
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(c *gin.Context) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.feed.Subscribe()
	defer unsub()

	w.WriteHeader(http.StatusOK)
	w.WriteString(": connected\n\n")
	w.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.WriteString("data: " + msg + "\n\n")
			w.Flush()

		case <-ticker.C:
			w.WriteString(": heartbeat\n\n")
			w.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

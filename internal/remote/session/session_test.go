package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/display"
	"github.com/zortness/mag-loop-controller/internal/remote/dispatch"
	"github.com/zortness/mag-loop-controller/internal/remote/history"
	"github.com/zortness/mag-loop-controller/internal/remote/menu"
)

// ---------- Fakes ----------

type fakeLink struct {
	connected   bool
	addr        string
	err         error
	connects    int
	disconnects int
}

func (f *fakeLink) Connected() bool { return f.connected }

func (f *fakeLink) Connect(context.Context) (string, error) {
	f.connects++
	if f.err != nil {
		return "", f.err
	}
	f.connected = true
	return f.addr, nil
}

func (f *fakeLink) Disconnect() error {
	f.disconnects++
	f.connected = false
	return nil
}

type countingMover struct{ degrees []float64 }

func (c *countingMover) Dispatch(_ context.Context, _ string, deg float64) dispatch.Outcome {
	c.degrees = append(c.degrees, deg)
	return dispatch.Outcome{Code: 200}
}

type fixture struct {
	sess   *Session
	menu   *menu.Machine
	link   *fakeLink
	mover  *countingMover
	screen *display.Screen
	clk    *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	scr := display.New()
	mv := &countingMover{}
	m, err := menu.New([]string{"magloopcontroller20", "magloopcontroller40"},
		[]float64{3.6, 5, 7.2, 10, 15}, 4, scr, mv, history.New(0))
	if err != nil {
		t.Fatalf("menu.New: %v", err)
	}
	link := &fakeLink{addr: "192.168.1.50"}
	clk := clock.NewFake(time.Unix(0, 0))
	return &fixture{
		sess:   New(m, link, scr, clk, time.Second),
		menu:   m,
		link:   link,
		mover:  mv,
		screen: scr,
		clk:    clk,
	}
}

// ---------- Power ----------

func TestPoll_PowerOffCheckedFirst(t *testing.T) {
	f := newFixture(t)
	f.link.connected = true
	got := f.sess.Poll(context.Background(), Inputs{B: true, Power: true})
	if got != PowerOff {
		t.Fatalf("Poll = %v, want PowerOff", got)
	}
	if f.menu.Controlling() {
		t.Error("power-off press must not reach the menu")
	}
	if f.link.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", f.link.disconnects)
	}
	if !reflect.DeepEqual(f.screen.Status(), []string{StatusPowerOff}) {
		t.Errorf("Status = %v", f.screen.Status())
	}
}

// ---------- Selecting ----------

func TestPoll_SelectingDoesNotNeedLink(t *testing.T) {
	f := newFixture(t)
	if got := f.sess.Poll(context.Background(), Inputs{C: true}); got != Acted {
		t.Fatalf("Poll = %v, want Acted", got)
	}
	if f.link.connects != 0 {
		t.Error("host selection should not touch the link")
	}
	if f.screen.Title() != "Select Host" {
		t.Errorf("Title = %q", f.screen.Title())
	}
}

func TestPoll_SelectMovesApplyBeforeConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if got := f.sess.Poll(ctx, Inputs{B: true, C: true}); got != Acted {
		t.Fatalf("Poll = %v, want Acted", got)
	}
	want := menu.Controlling{Host: "magloopcontroller40", AngleIndex: 4}
	if f.menu.State() != want {
		t.Errorf("State = %#v, want %#v", f.menu.State(), want)
	}
	if len(f.mover.degrees) != 0 {
		t.Errorf("confirming a host dispatched %v", f.mover.degrees)
	}
	if f.link.connects != 0 {
		t.Errorf("connects = %d, want 0 on the confirming poll", f.link.connects)
	}

	if got := f.sess.Poll(ctx, Inputs{C: true}); got != LinkUp {
		t.Fatalf("next Poll = %v, want LinkUp", got)
	}
	if len(f.mover.degrees) != 0 {
		t.Error("no move before the link is up")
	}
}

func TestPoll_UpAndConfirmTogether(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sess.Poll(ctx, Inputs{C: true})

	f.sess.Poll(ctx, Inputs{A: true, B: true})
	want := menu.Controlling{Host: "magloopcontroller20", AngleIndex: 4}
	if f.menu.State() != want {
		t.Errorf("State = %#v, want %#v", f.menu.State(), want)
	}
}

func TestPoll_IdleRendersOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if got := f.sess.Poll(ctx, Inputs{}); got != Idle {
		t.Fatalf("Poll = %v, want Idle", got)
	}
	v := f.screen.Version()
	f.sess.Poll(ctx, Inputs{})
	if f.screen.Version() != v {
		t.Error("an idle poll redrew a clean screen")
	}
}

// ---------- Link ----------

func TestPoll_ConnectsOnceControlling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sess.Poll(ctx, Inputs{B: true})

	if got := f.sess.Poll(ctx, Inputs{C: true}); got != LinkUp {
		t.Fatalf("Poll = %v, want LinkUp", got)
	}
	if len(f.mover.degrees) != 0 {
		t.Error("buttons are ignored on the poll that brings the link up")
	}
	want := []string{StatusConnecting, "192.168.1.50"}
	if !reflect.DeepEqual(f.screen.Status(), want) {
		t.Errorf("Status = %v, want %v", f.screen.Status(), want)
	}
	if f.screen.Title() != "MagLoop Step 15.00" {
		t.Errorf("Title = %q", f.screen.Title())
	}

	if got := f.sess.Poll(ctx, Inputs{C: true}); got != Acted {
		t.Fatalf("Poll = %v, want Acted", got)
	}
	if !reflect.DeepEqual(f.mover.degrees, []float64{15}) {
		t.Errorf("degrees = %v", f.mover.degrees)
	}
	if f.link.connects != 1 {
		t.Errorf("connects = %d, want 1", f.link.connects)
	}
}

func TestPoll_LinkFailureRetriesAfterInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sess.Poll(ctx, Inputs{B: true})
	f.link.err = errors.New("no carrier")

	if got := f.sess.Poll(ctx, Inputs{}); got != LinkDown {
		t.Fatalf("Poll = %v, want LinkDown", got)
	}
	want := []string{StatusConnecting, StatusLinkFailed}
	if !reflect.DeepEqual(f.screen.Status(), want) {
		t.Errorf("Status = %v, want %v", f.screen.Status(), want)
	}

	f.clk.Advance(500 * time.Millisecond)
	if got := f.sess.Poll(ctx, Inputs{}); got != Waiting {
		t.Fatalf("Poll before retry = %v, want Waiting", got)
	}
	if f.link.connects != 1 {
		t.Errorf("connects = %d, want 1", f.link.connects)
	}

	f.clk.Advance(500 * time.Millisecond)
	f.link.err = nil
	if got := f.sess.Poll(ctx, Inputs{}); got != LinkUp {
		t.Fatalf("Poll after retry = %v, want LinkUp", got)
	}
}

func TestInputs_Any(t *testing.T) {
	if (Inputs{}).Any() {
		t.Error("zero Inputs should be empty")
	}
	if !(Inputs{Power: true}).Any() {
		t.Error("Power should count")
	}
}

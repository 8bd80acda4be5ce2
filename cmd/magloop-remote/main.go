package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/discovery"
	"github.com/zortness/mag-loop-controller/internal/display"
	"github.com/zortness/mag-loop-controller/internal/hw/button"
	"github.com/zortness/mag-loop-controller/internal/hw/gpio"
	"github.com/zortness/mag-loop-controller/internal/netlink"
	"github.com/zortness/mag-loop-controller/internal/remote/dispatch"
	"github.com/zortness/mag-loop-controller/internal/remote/history"
	"github.com/zortness/mag-loop-controller/internal/remote/hostcache"
	"github.com/zortness/mag-loop-controller/internal/remote/menu"
	"github.com/zortness/mag-loop-controller/internal/remote/session"
	"github.com/zortness/mag-loop-controller/internal/tui"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file (default is configs/remote.yaml or $HOME/.config/magloop/remote.yaml)")
	flag.Parse()

	cfg, err := loadRemoteConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends debug output to the log file; the TUI owns stdout.
func setupLogging(cfg remoteConfig) (func(), error) {
	if cfg.LogFile == "" || cfg.DebugLevel == debug.LevelOff {
		debug.SetOutput(io.Discard)
		debug.Init(cfg.DebugLevel)
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	debug.SetOutput(f)
	debug.Init(cfg.DebugLevel)
	return func() { _ = f.Close() }, nil
}

func run(cfg remoteConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	debug.Section("Remote")
	debug.Value("Hosts", cfg.Hosts)
	debug.Value("Angles", cfg.Angles)
	debug.PrintStruct("Config", cfg)

	clk := clock.Real{}
	screen := display.New()
	hist := history.New(history.DefaultCapacity)
	hosts := hostcache.New(discovery.NewResolver(cfg.Service, cfg.ResolveTimeout), hist, clk, cfg.HostCacheTTL)
	client := &http.Client{Timeout: cfg.RequestTimeout}
	mover := dispatch.New(client, hosts, hist, screen, cfg.ControllerPort)

	machine, err := menu.New(cfg.Hosts, cfg.Angles, cfg.AngleIndex, screen, mover, hist)
	if err != nil {
		return err
	}
	link := &announcingLink{
		Link:     netlink.New(cfg.Interface, cfg.LinkTimeout, nil),
		instance: cfg.Hostname,
		register: func(instance string) (*discovery.Registration, error) {
			return discovery.Register(instance, discovery.RemoteService, discovery.RemotePort)
		},
	}
	defer link.withdraw()
	sess := session.New(machine, link, screen, clk, cfg.LinkRetry)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	model := tui.NewModel(runCtx, sess, screen, cfg.PollInterval)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		if _, err := program.Run(); err != nil {
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
				return fmt.Errorf("TUI requires a real terminal")
			}
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})

	if cfg.Buttons.Enabled {
		panel, closePanel, err := newButtonPanel(cfg, clk)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer closePanel()
		g.Go(func() error {
			return panel.Run(gctx, cfg.Buttons.Poll, func(st button.State) {
				program.Send(tui.InputMsg{Inputs: inputsFrom(st)})
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if model.PoweredOff() {
		debug.Info("Powered off")
	}
	return nil
}

// newButtonPanel opens the GPIO driver for the three buttons. On the
// mock driver the pins are parked at their released level.
func newButtonPanel(cfg remoteConfig, clk clock.Clock) (*button.Panel, func(), error) {
	drv, err := gpio.NewDriver(cfg.Buttons.Mock)
	if err != nil {
		return nil, nil, fmt.Errorf("init GPIO failed: %w", err)
	}
	closeDrv := func() {
		if err := drv.Close(); err != nil {
			debug.Error(fmt.Errorf("closing GPIO driver failed: %w", err))
		}
	}

	pins := button.Pins{
		A:         cfg.Buttons.Pins.A,
		B:         cfg.Buttons.Pins.B,
		C:         cfg.Buttons.Pins.C,
		ActiveLow: cfg.Buttons.ActiveLow,
	}
	panel, err := button.NewPanel(drv, clk, pins, button.Timing{
		Hold:      cfg.Buttons.Hold,
		LongPress: cfg.Buttons.LongPress,
		Settle:    cfg.Settle,
	})
	if err != nil {
		closeDrv()
		return nil, nil, err
	}
	if cfg.Buttons.Mock {
		released := gpio.Level(cfg.Buttons.ActiveLow)
		for _, pin := range []int{pins.A, pins.B, pins.C} {
			if err := drv.WritePin(pin, released); err != nil {
				closeDrv()
				return nil, nil, err
			}
		}
	}
	return panel, closeDrv, nil
}

// announcingLink advertises the remote's hostname once the link is up
// and withdraws it on disconnect.
type announcingLink struct {
	session.Link
	instance string
	register func(instance string) (*discovery.Registration, error)

	reg *discovery.Registration
}

func (l *announcingLink) Connect(ctx context.Context) (string, error) {
	addr, err := l.Link.Connect(ctx)
	if err != nil {
		return "", err
	}
	if l.reg == nil && l.instance != "" {
		reg, err := l.register(l.instance)
		if err != nil {
			debug.Info("Error starting mDNS: %v", err)
		} else {
			l.reg = reg
		}
	}
	return addr, nil
}

func (l *announcingLink) Disconnect() error {
	l.withdraw()
	return l.Link.Disconnect()
}

func (l *announcingLink) withdraw() {
	l.reg.Shutdown()
	l.reg = nil
}

func inputsFrom(st button.State) session.Inputs {
	return session.Inputs{A: st.A, B: st.B, C: st.C, Power: st.Power}
}

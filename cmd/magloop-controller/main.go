package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/config"
	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/discovery"
	"github.com/zortness/mag-loop-controller/internal/hw/gpio"
	"github.com/zortness/mag-loop-controller/internal/hw/stepper"
	"github.com/zortness/mag-loop-controller/internal/logic/motion"
	"github.com/zortness/mag-loop-controller/internal/logic/steps"
	"github.com/zortness/mag-loop-controller/internal/web"
)

// feedBacklog is how many log lines a new /status/stream client receives.
const feedBacklog = 100

func main() {
	// CLI flags
	port := &portFlag{}
	flag.Var(port, "port", "override network.port from the config file (1-65535)")
	cfgPath := flag.String("config", filepath.Join("configs", "controller.yaml"), "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if p := port.port(); p > 0 {
		cfg.Network.Port = p
	}

	// Initialize debug system; every line also goes to /status/stream
	feed := web.NewStatusFeed(feedBacklog)
	debug.SetOutput(io.MultiWriter(os.Stdout, feed.Writer()))
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	debug.Step(2, "Initializing stepper driver")
	motor, err := stepper.NewStepper(gpioDriver, clock.Real{}, stepperConfig(cfg))
	if err != nil {
		log.Fatalf("init stepper failed: %v", err)
	}
	debug.PrintStruct("Stepper config", cfg.Stepper)

	debug.Step(3, "Creating motion sequencer")
	timing := motionTiming(cfg)
	sequencer := motion.NewSequencer(motor, timing, stepper.Resolution(cfg.Stepper.Microsteps))
	translator := steps.NewTranslator(cfg.Motion.DegreesPerStep, cfg.Stepper.Microsteps)
	debug.PrintStruct("Motion timing", timing)
	debug.Value("Degrees per step", cfg.Motion.DegreesPerStep)

	debug.Step(4, "Starting network services")
	gin.SetMode(gin.ReleaseMode)
	srv := web.NewServer(cfg.ListenAddr(), web.NewHandlers(translator, sequencer, feed))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if cfg.Network.MDNS {
		g.Go(func() error {
			reg, err := discovery.Register(cfg.Network.Hostname, cfg.Network.Service, cfg.Network.Port)
			if err != nil {
				return err
			}
			<-gctx.Done()
			reg.Shutdown()
			return nil
		})
	}

	debug.Info("Controller %s ready on %s", cfg.Network.Hostname, cfg.ListenAddr())
	if err := g.Wait(); err != nil {
		log.Fatalf("controller: %v", err)
	}
	debug.Info("Controller stopped")
}

func stepperConfig(cfg *config.Config) stepper.Config {
	return stepper.Config{
		StepPin:   cfg.Stepper.StepPin,
		DirPin:    cfg.Stepper.DirPin,
		EnablePin: cfg.Stepper.EnablePin,
		MS1Pin:    cfg.Stepper.MS1Pin,
		MS2Pin:    cfg.Stepper.MS2Pin,
		MS3Pin:    cfg.Stepper.MS3Pin,
	}
}

func motionTiming(cfg *config.Config) motion.Timing {
	return motion.Timing{
		FastThreshold: cfg.Motion.FastThreshold,
		NormalDelay:   cfg.NormalDelay(),
		LongDelay:     cfg.LongDelay(),
	}
}

// portFlag implements flag.Value for -port: 0 = keep the config value, -port 8080 → 8080.
type portFlag struct {
	val int
}

func (p *portFlag) String() string {
	return strconv.Itoa(p.val)
}

func (p *portFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	p.val = v
	return nil
}

func (p *portFlag) port() int { return p.val }

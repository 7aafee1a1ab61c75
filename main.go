package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"LiveBoard/internal/board"
	lbnet "LiveBoard/internal/net"
	"LiveBoard/internal/platform/config"
	"LiveBoard/internal/platform/logger"
	"LiveBoard/internal/platform/metrics"
	"LiveBoard/internal/render"
	"LiveBoard/internal/replay"
	"LiveBoard/internal/state"
	"LiveBoard/internal/ui"
)

const (
	shutdownTimeout = 5 * time.Second
	discoverTimeout = 3 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	relayOnly := flag.Bool("relay", false, "run the relay without a board window")
	discover := flag.Bool("discover", false, "join the first relay found on the local network")
	flag.Parse()

	_ = config.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := cfg.Endpoint
	if flag.NArg() > 0 {
		endpoint = lbnet.RelayURL(flag.Arg(0))
	}
	if endpoint == "" && *discover {
		u, err := lbnet.Discover(ctx, discoverTimeout)
		if err != nil {
			return fmt.Errorf("no relay found: %w", err)
		}
		endpoint = u
	}

	if endpoint != "" && !*relayOnly {
		log.Info("joining board", "endpoint", endpoint)
		return runClient(ctx, stop, cfg, endpoint, log)
	}

	shutdown, err := startRelay(cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	if *relayOnly {
		<-ctx.Done()
		log.Info("shutdown signal received")
		return nil
	}
	return runClient(ctx, stop, cfg, fmt.Sprintf("ws://127.0.0.1:%d%s", cfg.Port, lbnet.RelayPath), log)
}

// startRelay serves the relay on cfg.Port and advertises it over mDNS.
func startRelay(cfg config.Board, log *slog.Logger) (func(), error) {
	met := metrics.New()
	pm := lbnet.NewPeerManager(log, met)
	srv, err := serveRelay(fmt.Sprintf(":%d", cfg.Port), newRouter(pm, met, log), log)
	if err != nil {
		return nil, err
	}

	log.Info("relay listening", "port", cfg.Port, "share_link", lbnet.ShareLink(cfg.Port))

	var stopMDNS func() error
	if cfg.MDNS {
		adv, err := lbnet.Advertise(cfg.Port)
		if err != nil {
			log.Warn("mDNS advertising disabled", "error", err)
		} else {
			stopMDNS = adv.Shutdown
		}
	}

	return func() {
		if stopMDNS != nil {
			_ = stopMDNS()
		}
		pm.Close()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("relay shutdown error", "error", err)
		}
		log.Info("relay stopped")
	}, nil
}

// serveRelay binds addr before serving, so a port already in use is reported
// here rather than from the serving goroutine.
func serveRelay(addr string, h http.Handler, log *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("relay failed to start: %w", err)
	}
	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("relay stopped serving", "error", err)
		}
	}()
	return srv, nil
}

// runClient opens the board window connected to endpoint and blocks until the
// window closes or ctx ends.
func runClient(ctx context.Context, cancel context.CancelFunc, cfg config.Board, endpoint string, log *slog.Logger) error {
	raster := render.NewRaster(cfg.Width, cfg.Height, color.White)
	surfaces := render.Multi{raster}
	var pdf *render.PDF
	if cfg.ExportPDF != "" {
		pdf = render.NewPDF(float64(cfg.Width), float64(cfg.Height))
		surfaces = append(surfaces, pdf)
	}

	self := state.NewSenderID()
	log = log.With("sender", string(self))

	transport := lbnet.NewWSTransport(endpoint, log)
	adapter := lbnet.NewAdapter(transport, log)
	b := board.New(self, replay.NewEngine(surfaces, state.DefaultStyle, log), adapter, log)
	adapter.Subscribe(b.Receive, b.PeerLeft)

	bw := ui.NewBoardWidget(b, raster, cfg.Width, cfg.Height)
	b.OnChange = bw.Redraw
	win := ui.NewWindow("LiveBoard", b, bw)
	transport.OnStatus = func(connected bool, err error) {
		switch {
		case connected:
			win.SetStatus("Connected to " + endpoint)
		case err != nil:
			win.SetStatus("Reconnecting: " + err.Error())
		default:
			win.SetStatus("Disconnected")
		}
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_ = transport.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = b.Run(ctx)
	}()
	closed := make(chan struct{})
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			win.Quit()
		case <-closed:
		}
	}()

	win.Run()
	close(closed)
	cancel()
	wg.Wait()

	return export(cfg, raster, pdf, log)
}

// export writes the configured snapshots of the final board.
func export(cfg config.Board, raster *render.Raster, pdf *render.PDF, log *slog.Logger) error {
	var errs []error
	if cfg.ExportPNG != "" {
		if err := raster.SavePNG(cfg.ExportPNG); err != nil {
			errs = append(errs, fmt.Errorf("png export: %w", err))
		} else {
			log.Info("board exported", "format", "png", "path", cfg.ExportPNG)
		}
	}
	if pdf != nil {
		if err := pdf.Save(cfg.ExportPDF); err != nil {
			errs = append(errs, fmt.Errorf("pdf export: %w", err))
		} else {
			log.Info("board exported", "format", "pdf", "path", cfg.ExportPDF)
		}
	}
	return errors.Join(errs...)
}

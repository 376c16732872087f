package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/airsketch/internal/app"
	"github.com/ayusman/airsketch/internal/canvas"
	"github.com/ayusman/airsketch/internal/capture"
	"github.com/ayusman/airsketch/internal/config"
	"github.com/ayusman/airsketch/internal/detector"
	"github.com/ayusman/airsketch/internal/server"
	"github.com/ayusman/airsketch/internal/tray"
	"github.com/ayusman/airsketch/pkg/log"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to airsketch.yaml")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "airsketch: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level})

	color, err := canvas.ParseHex(cfg.Canvas.Color)
	if err != nil {
		log.Warn(log.Fields{"color": cfg.Canvas.Color, "error": err}, "[main] invalid canvas color, using default")
		color = canvas.DefaultColor
	}

	a := app.New(app.Config{
		Camera: capture.Config{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
		},
		Detector: detector.Config{
			MaxHands:        cfg.Detector.MaxHands,
			MinConfidence:   cfg.Detector.MinConfidence,
			MinTrackingConf: cfg.Detector.MinTrackingConfidence,
		},
		DebounceFrames: cfg.Gesture.DebounceFrames,
		Color:          color,
		Debug:          cfg.Debug,
	})

	if err := a.Start(); err != nil {
		log.Fatal(log.Fields{"error": err}, "[main] failed to start")
	}
	defer a.Stop()

	webDir := cfg.Server.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info(log.Fields{"dir": webDir}, "[main] serving static files")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{StaticDir: webDir, App: a})
	go func() {
		if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
			log.Error(log.Fields{"error": err}, "[main] server failed")
			stop()
		}
	}()

	log.Info(log.Fields{"session": a.Session().ID, "addr": cfg.Server.Addr}, "[main] airsketch running")

	if *noTray || !cfg.Tray {
		<-ctx.Done()
		return
	}

	// systray needs the main thread.
	t := newTray(a, cfg, stop)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	go relayPoses(ctx, a.Session(), t)
	t.Run()
}

func newTray(a *app.App, cfg *config.Config, quit func()) *tray.Tray {
	t := tray.New()
	session := a.Session()

	t.OnToggle(a.SetEnabled)
	t.OnClear(session.Clear)
	t.OnSave(func() {
		if _, err := session.SaveTo(cfg.Canvas.ExportDir); err != nil {
			log.Error(log.Fields{"error": err}, "[main] save failed")
		}
	})
	t.OnColor(func(hex string) {
		c, err := canvas.ParseHex(hex)
		if err != nil {
			log.Warn(log.Fields{"color": hex, "error": err}, "[main] bad preset")
			return
		}
		session.Palette().Set(c)
	})
	t.OnOpen(func() {
		openBrowser("http://" + browserAddr(cfg.Server.Addr))
	})
	t.OnQuit(quit)

	return t
}

// relayPoses shows pose changes in the tray.
func relayPoses(ctx context.Context, session *app.Session, t *tray.Tray) {
	frames, unsubscribe := session.Subscribe()
	defer unsubscribe()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case fs, ok := <-frames:
			if !ok {
				return
			}
			name := ""
			if fs.HasHand {
				name = fs.Pose.String()
			}
			if name != last {
				t.SetLastPose(name)
				last = name
			}
		}
	}
}

func browserAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn(log.Fields{"url": url, "error": err}, "[main] failed to open browser")
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "airsketch.yaml"
	}
	return filepath.Join(home, ".airsketch", "airsketch.yaml")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.airsketch/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".airsketch", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

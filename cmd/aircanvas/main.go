package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/server"
	"github.com/ayusman/aircanvas/internal/session"
	"github.com/ayusman/aircanvas/internal/store"
	"github.com/ayusman/aircanvas/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	width := flag.Int("width", capture.DefaultWidth, "canvas width in pixels")
	height := flag.Int("height", capture.DefaultHeight, "canvas height in pixels")
	smoothing := flag.Float64("smoothing", 0.3, "pointer smoothing factor in [0, 1)")
	dataDir := flag.String("data", "", "data directory (default ~/.aircanvas)")
	webDir := flag.String("web", "", "static web directory (default: search web/)")
	useTray := flag.Bool("tray", false, "show the system tray menu")
	noCamera := flag.Bool("no-camera", false, "serve the API without the local camera pipeline")
	flag.Parse()

	fmt.Println("Air Canvas - draw with your hand")

	// Initialize the store
	dir, err := resolveDataDir(*dataDir)
	if err != nil {
		log.Fatalf("Failed to get data directory: %v", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dir, "aircanvas.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	defaults := session.DefaultConfig(*width, *height)
	defaults.Smoothing = *smoothing
	if err := defaults.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}
	sessions := session.NewManager(defaults)
	defer sessions.CloseAll()

	det := newDetector()

	var local *app.App
	if !*noCamera {
		local, err = startLocal(defaults, st, det, *cameraID)
		if err != nil {
			log.Printf("Local pipeline unavailable: %v", err)
			local = nil
		}
	}

	// Find web directory
	static := *webDir
	if static == "" {
		static = findWebDir(dir)
	}
	if static != "" {
		fmt.Printf("Serving static files from: %s\n", static)
	}

	// Configure and start server
	srv := server.New(server.Config{
		StaticDir: static,
		Store:     st,
		Sessions:  sessions,
		App:       local,
		Detector:  det,
	})
	httpServer := &http.Server{Addr: *addr, Handler: srv}

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			log.Println("Shutting down")
			if local != nil {
				if err := local.SaveSettings(); err != nil {
					log.Printf("Error saving settings: %v", err)
				}
				local.Stop()
				local.Session().Close()
			} else if err := det.Close(); err != nil {
				log.Printf("Error closing detector: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Printf("Error stopping server: %v", err)
			}
		})
	}
	defer shutdown()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if !*useTray {
		<-signals
		return
	}

	// systray owns the main thread until Quit.
	t := newTray(local, "http://localhost"+*addr)
	t.OnQuit(shutdown)
	go func() {
		<-signals
		shutdown()
		os.Exit(0)
	}()
	t.Run()
}

// newDetector prefers MediaPipe and falls back to the mock detector.
func newDetector() detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		return detector.NewMockDetector()
	}
	log.Println("Using MediaPipe hand detection")
	return mp
}

// startLocal opens the camera pipeline feeding a dedicated local session.
func startLocal(defaults session.Config, st *store.Store, det detector.Detector, cameraID int) (*app.App, error) {
	s, err := session.New(defaults)
	if err != nil {
		return nil, err
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = cameraID

	a, err := app.New(app.Config{
		Session:      s,
		Store:        st,
		CameraConfig: camCfg,
		Detector:     det,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := a.LoadSettings(); err != nil {
		log.Printf("Error loading settings: %v", err)
	}
	if err := a.Start(); err != nil {
		s.Close()
		return nil, err
	}
	return a, nil
}

// newTray wires the tray menu to the local pipeline.
func newTray(local *app.App, url string) *tray.Tray {
	t := tray.New()
	t.OnOpen(func() { openBrowser(url) })

	if local == nil {
		return t
	}

	t.OnToggle(local.SetEnabled)
	t.OnClear(local.ClearCanvas)
	t.OnSnapshot(func() {
		if _, err := local.SaveSnapshot(); err != nil {
			log.Printf("Error saving snapshot: %v", err)
		}
	})
	local.OnResult(func(res session.Result) {
		t.SetMode(res.Mode.String())
		t.SetColor(canvas.Hex(res.Color))
	})
	return t
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
		log.Printf("Error opening browser: %v", err)
	}
}

func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".aircanvas"), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
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

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ayusman/aabharan/internal/app"
	"github.com/ayusman/aabharan/internal/server"
	"github.com/ayusman/aabharan/internal/store"
	"github.com/ayusman/aabharan/internal/tray"
	"github.com/ayusman/aabharan/internal/tryon"
)

func main() {
	fmt.Println("Aabharan - Virtual Jewelry Try-On")

	// Load .env if present; real environment wins
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	addr := envOr("AABHARAN_ADDR", ":8080")
	cameraID, _ := strconv.Atoi(envOr("AABHARAN_CAMERA_ID", "0"))

	// Initialize the store
	dbPath := os.Getenv("AABHARAN_DB_PATH")
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}

		dbDir := filepath.Join(homeDir, ".aabharan")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "aabharan.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Build the try-on pipeline
	a, err := app.New(app.Config{
		Store:    st,
		CameraID: cameraID,
		TryOn:    tryon.DefaultConfig(),
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	a.SetEnabled(true)

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	// Configure and start the server
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", addr)
		if err := srv.ListenAndServe(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// The tray runs on the main goroutine and blocks until quit
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnViewer(func() {
		openBrowser("http://localhost" + addr)
	})
	t.OnQuit(a.Stop)
	t.Run()
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openBrowser opens url in the default browser, best effort.
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
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.aabharan/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
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

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".aabharan", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

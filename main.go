// Command shiproute starts the ship route planner.
//
// It supports three commands:
//  1. "server" (default) – runs the HTTP server exposing the REST API, WebSocket step streams, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "plan" – routes once over a scenario and prints the path
//
// Flags control host/port, the scenario directory, debug logging, and optional
// ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/shiproute/api"
	"github.com/wricardo/shiproute/routing/config"
	"github.com/wricardo/shiproute/routing/planner"
	"github.com/wricardo/shiproute/routing/service"
	"github.com/wricardo/shiproute/routing/session"
	"github.com/wricardo/shiproute/transport/mcp"
	"github.com/wricardo/shiproute/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Ship Route Planner"
)

// Idle searches are dropped after searchMaxAge, checked every cleanupInterval
const (
	searchMaxAge    = 24 * time.Hour
	cleanupInterval = 1 * time.Hour
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the root command. Flags are inherited by every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "shiproute",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:  "host",
				Value: "localhost",
				Usage: "HTTP server host",
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing scenario files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runMCPCommand,
			},
			{
				Name:  "plan",
				Usage: "Route once over a scenario and print the path",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scenario",
						Usage: "Scenario ID (defaults to the default scenario)",
					},
					&cli.IntFlag{
						Name:  "start",
						Value: -1,
						Usage: "Start cell index (defaults to the scenario start)",
					},
					&cli.IntFlag{
						Name:  "end",
						Value: -1,
						Usage: "Goal cell index (defaults to the scenario goal)",
					},
				},
				Action: runPlanCommand,
			},
		},
	}
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	routeService, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	return runHTTPServer(ctx, routeService, addr, ngrokSettings{
		enabled:   cmd.Bool("ngrok"),
		authToken: cmd.String("ngrok-auth"),
		domain:    cmd.String("ngrok-domain"),
	})
}

func runMCPCommand(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	routeService, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	externalURL := fmt.Sprintf("http://localhost:%d", int(cmd.Int("port")))
	return runStdioMCPWithInternalServer(routeService, externalURL)
}

func runPlanCommand(ctx context.Context, cmd *cli.Command) error {
	routeService, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	var req service.RouteRequest
	if start := int(cmd.Int("start")); start >= 0 {
		req.Start = &start
	}
	if end := int(cmd.Int("end")); end >= 0 {
		req.End = &end
	}

	return plan(ctx, routeService, cmd.String("scenario"), req, cmd.Root().Writer)
}

// plan runs one route and writes the result
func plan(ctx context.Context, routeService service.RouteService, scenarioID string, req service.RouteRequest, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	result, err := routeService.FindRoute(ctx, scenarioID, req)
	if err != nil {
		return err
	}

	indices := make([]string, len(result.Path))
	for i, idx := range result.Path {
		indices[i] = fmt.Sprintf("%d", idx)
	}

	fmt.Fprintf(out, "Scenario: %s\n", result.Scenario)
	fmt.Fprintf(out, "From %s to %s\n", formatCell(result.Cells[0]), formatCell(result.Cells[len(result.Cells)-1]))
	fmt.Fprintf(out, "Cells: %d\n", len(result.Path))
	fmt.Fprintf(out, "Cost: %.3f\n", result.Cost)
	fmt.Fprintf(out, "Expanded: %d\n", result.Expanded)
	fmt.Fprintf(out, "Path: %s\n", strings.Join(indices, " "))
	return nil
}

func formatCell(c planner.Cell) string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

type ngrokSettings struct {
	enabled   bool
	authToken string
	domain    string
}

// newHTTPHandler combines the REST API with the /mcp endpoint
func newHTTPHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, routeService service.RouteService, addr string, tunnel ngrokSettings) error {
	hub := websocket.NewHub()
	go hub.Run()

	apiServer := api.NewServer(routeService, hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newHTTPHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?search=<search_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if tunnel.enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, handler, tunnel)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received. Shutting down...")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
		stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// serveNgrok exposes the handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, handler http.Handler, settings ngrokSettings) {
	if settings.authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var endpoint ngrokConfig.Tunnel
	if settings.domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.domain))
		log.Printf("Using custom ngrok domain: %s", settings.domain)
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(settings.authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?search=<search_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the scenario and search managers into the route
// service. It also starts a background routine that expires idle searches.
func initializeServices(configDir string) (service.RouteService, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	log.Printf("Default scenario: %s", configManager.DefaultName())

	searchManager := session.NewManager()
	routeService := service.NewRouteService(searchManager, configManager)

	go searchCleanupRoutine(searchManager)

	return routeService, nil
}

// searchCleanupRoutine periodically cancels and removes searches that have not
// been accessed within searchMaxAge.
func searchCleanupRoutine(manager *session.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		removed := manager.CleanupExpiredSessions(searchMaxAge)
		if removed > 0 {
			log.Printf("[SEARCH] Cleaned up %d expired searches", removed)
		}
	}
}

// externalAPIAvailable reports whether an API server answers /health at baseURL
func externalAPIAvailable(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at externalURL; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(routeService service.RouteService, externalURL string) error {
	var baseURL string

	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	if externalAPIAvailable(testClient, externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()

		httpServer := &http.Server{
			Handler: api.NewServer(routeService, hub),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/gate"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/httpserver"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/powerstar"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/shadowlog"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/store"
)

var (
	serveAddr      string
	serveRoutes    string
	serveLogDir    string
	serveRedisURL  string
	serveSweepSecs int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8077", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveRoutes, "routes", "", "Path to routes YAML (built-in table when omitted)")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "logs", "Base directory for shadow and public logs")
	serveCmd.Flags().StringVar(&serveRedisURL, "redis-url", "", "Redis URL for the shared session store (in-memory when omitted)")
	serveCmd.Flags().IntVar(&serveSweepSecs, "sweep-interval", 60, "Star retention sweep interval, seconds")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gate server",
	Long:  "Runs the gate as an HTTP server for dashboards and device agents.\nSupports hot-reload of the routes file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	routes, hash, err := authority.LoadRoutes(serveRoutes)
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}
	router := authority.NewRouter(routes)
	router.Replace(routes, hash)

	cipher, err := shadowlog.NewCipher()
	if err != nil {
		return err
	}
	shadow, err := shadowlog.New(serveLogDir, cipher)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sessions store.Store
	if serveRedisURL != "" {
		sessions, err = store.NewRedis(ctx, serveRedisURL)
		if err != nil {
			return err
		}
	} else {
		mem := store.NewMemory()
		mem.StartJanitor(time.Minute)
		sessions = mem
	}
	defer sessions.Close()

	stars := powerstar.NewManager()
	stars.StartSweeper(ctx, time.Duration(serveSweepSecs)*time.Second)

	done := make(chan struct{})
	defer close(done)
	shadow.StartCleanup(done, 12*time.Hour)

	g := gate.New(router, stars, shadow, sessions)
	srv := httpserver.New(httpserver.Config{
		ListenAddr: serveAddr,
		RoutesPath: serveRoutes,
		Log:        log,
	}, g)

	if serveRoutes != "" {
		reloader, err := httpserver.NewReloader(router, serveRoutes, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
		} else {
			go reloader.Run(ctx)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gate server...")
		cancel()
	}()

	return srv.Run(ctx)
}

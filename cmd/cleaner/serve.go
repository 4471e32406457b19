package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/touchstone-cleaner/pkg/api"
	"github.com/hazyhaar/touchstone-cleaner/pkg/importer"
	"github.com/hazyhaar/touchstone-cleaner/pkg/kit"
	"github.com/hazyhaar/touchstone-cleaner/pkg/mcpquic"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cleaner API over HTTP with MCP at /mcp",
	Long:  "Serves the REST API and the MCP tools (streamable HTTP at /mcp). With server.quic_addr set, the same API is also served as HTTP/3 and MCP over QUIC on that UDP address.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		log := zap.L()

		store, err := openStore()
		if err != nil {
			return err
		}
		log.Info("legal forms loaded", zap.Int("countries", len(store.Countries())), zap.String("dir", cfg.LegalForms.Dir))
		svc, err := newService(store)
		if err != nil {
			return err
		}

		mcpSrv := api.NewMCPServer(svc, version, log)
		limiter := kit.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst)
		router := api.NewRouter(svc, api.Options{
			Logger:      log,
			CORSOrigins: cfg.Server.CORSOrigins,
			Limiter:     limiter,
			MCP:         server.NewStreamableHTTPServer(mcpSrv),
		})

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		var ln *mcpquic.Listener
		if cfg.Server.QUICAddr != "" {
			tlsCfg, err := mcpquic.ServerTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
			if err != nil {
				return err
			}
			if ln, err = mcpquic.Listen(mcpquic.Config{
				Addr:   cfg.Server.QUICAddr,
				TLS:    tlsCfg,
				MCP:    mcpSrv,
				HTTP:   router,
				Logger: log,
			}); err != nil {
				return err
			}
			srv.Handler = altSvc(cfg.Server.QUICAddr, router)
		}
		var sdb *importer.SourceDB
		if cfg.Import.CheckInterval > 0 {
			if sdb, err = openSourceDB(); err != nil {
				return err
			}
			defer sdb.Close()
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("cleaner listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			sweepLimiter(ctx, limiter, time.Minute)
			return nil
		})
		g.Go(func() error {
			reloadOnHangup(ctx, svc.Normalizer, log)
			return nil
		})
		if ln != nil {
			g.Go(func() error { return ln.Serve(ctx) })
			g.Go(func() error {
				<-ctx.Done()
				return ln.Close()
			})
		}
		if sdb != nil {
			g.Go(func() error {
				importer.NewChecker(sdb, log, cfg.Import.CheckInterval).Start(ctx)
				return nil
			})
		}

		return g.Wait()
	},
}

// altSvc advertises the HTTP/3 endpoint to TCP clients.
func altSvc(quicAddr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(quicAddr)
	value := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}

func sweepLimiter(ctx context.Context, rl *kit.RateLimiter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Sweep()
		}
	}
}

// reloadOnHangup re-reads the legal-form resources on SIGHUP and selects the
// normalizer's active dictionary again from the new generation.
func reloadOnHangup(ctx context.Context, n *names.Normalizer, log *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			store := n.Store()
			if err := store.Reload(); err != nil {
				log.Error("legal forms reload failed", zap.Error(err))
				continue
			}
			if err := n.Refresh(); err != nil {
				log.Warn("active legal forms reset to default", zap.Error(err))
			}
			log.Info("legal forms reloaded", zap.Int("countries", len(store.Countries())))
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// Command userdesk serves the user management pages on top of a REST users
// collection.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/userdesk/internal/gateway"
	router "example.com/userdesk/internal/http"
	"example.com/userdesk/internal/platform/config"
	"example.com/userdesk/internal/platform/jwt"
	"example.com/userdesk/internal/platform/logger"
	"example.com/userdesk/internal/schema"
	"example.com/userdesk/internal/ui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := logger.New("userdesk", "error")
		boot.Fatalf("config: %s", err)
	}
	l, ok := logger.New("userdesk", cfg.LogLevel)
	if !ok {
		l.Warnf("unknown LOG_LEVEL %q, using warn", cfg.LogLevel)
	}

	rules, err := schema.LoadFile(cfg.SchemaPath)
	if err != nil {
		l.Fatalf("schema rules: %s", err)
	}
	s, err := schema.New(rules)
	if err != nil {
		l.Fatalf("schema rules: %s", err)
	}
	holder := schema.NewHolder(s)

	var opts []gateway.Option
	if cfg.RequestTimeout > 0 {
		opts = append(opts, gateway.WithTimeout(cfg.RequestTimeout))
	}
	gw, err := gateway.New(cfg.UsersAPIURL, opts...)
	if err != nil {
		l.Fatalf("users api: %s", err)
	}

	if cfg.Secret == "" {
		l.Info("APP_SECRET not set, form tokens will not survive a restart")
	}
	tokens, err := jwt.NewHS256([]byte(cfg.Secret), cfg.FormTTL)
	if err != nil {
		l.Fatalf("form tokens: %s", err)
	}
	sessions := ui.NewSessions(cfg.FormTTL)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Build(router.Deps{
			Gateway:  gw,
			Schema:   holder,
			Tokens:   tokens,
			Sessions: sessions,
			Log:      l,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof("listening on %s, users api %s", srv.Addr, cfg.UsersAPIURL)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		sessions.Run(ctx, time.Minute)
		return nil
	})
	if cfg.SchemaPath != "" {
		g.Go(func() error {
			return schema.Watch(ctx, cfg.SchemaPath, holder, l)
		})
	}

	if err := g.Wait(); err != nil {
		l.Fatalf("userdesk: %s", err)
	}
	l.Info("stopped")
}

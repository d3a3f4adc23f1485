// Command mockapi serves an in-memory users collection for local use.
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

	"example.com/userdesk/internal/core"
	router "example.com/userdesk/internal/http"
	"example.com/userdesk/internal/platform/config"
	"example.com/userdesk/internal/platform/logger"
	"example.com/userdesk/internal/repo"
)

func main() {
	cfg, err := config.LoadMockAPI()
	if err != nil {
		boot, _ := logger.New("mockapi", "error")
		boot.Fatalf("config: %s", err)
	}
	l, ok := logger.New("mockapi", cfg.LogLevel)
	if !ok {
		l.Warnf("unknown LOG_LEVEL %q, using warn", cfg.LogLevel)
	}

	var seed []core.User
	if cfg.Seed {
		seed = repo.SampleUsers()
	}
	store := repo.NewUserMem(seed...)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.BuildMockAPI(store, l),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof("users collection at http://localhost%s/users (%d seeded)", srv.Addr, store.Len())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		l.Fatalf("mockapi: %s", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	cityhttp "github.com/fwojciec/citydir/http"
	"golang.org/x/sync/errgroup"
)

// Run executes the serve command. It serves until the context is canceled,
// then drains in-flight requests for up to ShutdownTimeout.
func (c *ServeCmd) Run(deps *Dependencies) error {
	handler := cityhttp.NewServer(deps.Entries,
		cityhttp.WithLogger(deps.Logger),
		cityhttp.WithCORSOrigins(c.CORSOrigin...),
		cityhttp.WithRateLimit(c.RateLimit, c.Burst),
	)

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: cannot listen on %s: %v\n", c.Addr, err)
		return err
	}

	srv := &http.Server{Handler: handler}
	fmt.Fprintf(deps.Stdout, "Listening on http://%s\n", ln.Addr())

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

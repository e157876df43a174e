package main

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/connect6-live/config"
)

var errNoAuthToken = errors.New("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")

// serveTunnel exposes handler through an ngrok endpoint until ctx is done
func serveTunnel(ctx context.Context, cfg config.Tunnel, handler http.Handler, logger *zap.Logger) error {
	if cfg.AuthToken == "" {
		return errNoAuthToken
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		return err
	}
	defer tun.Close()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("updates", url+"/game/updates?playerId=<id>"),
		zap.String("mcp", url+"/mcp"))

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("ngrok tunnel closed")
	return nil
}

// Package httpserver runs an http.Server until its context is cancelled and
// then drains in-flight requests within Config.ShutdownTimeout.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.New(cfg, log)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Live and Ready provide the liveness and readiness probes.
package httpserver

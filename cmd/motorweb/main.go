package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motord/internal/client"
	"motord/internal/config"
	"motord/internal/logger"
	"motord/internal/web"
)

var (
	configFile string
	listen     string
	serverAddr string
	timeout    time.Duration
)

func init() {
	flag.StringVar(&configFile, "config", "configs/motord.toml", "Path to configuration file (motor list, logging)")
	flag.StringVar(&listen, "listen", "127.0.0.1:5000", "HTTP listen address")
	flag.StringVar(&serverAddr, "server", "192.168.1.100:12345", "motord address")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Timeout for one command")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}

	h := web.NewHandler(log, client.Sender{Addr: serverAddr}, serverAddr, cfg.MotorIDs(), timeout)
	srv := &http.Server{
		Addr:              listen,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 3*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Module("web").Errorf("shutdown: %v", err)
		}
	}()

	log.Module("web").Infof("serving form on http://%s/, forwarding to %s", listen, serverAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Module("web").Errorf("http server: %v", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

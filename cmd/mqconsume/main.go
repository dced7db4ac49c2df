// Command mqconsume reads messages from IBM MQ queues and prints each message
// body on its own line.
//
//	mqconsume [flags] QUEUE [QUEUE...]
//
// Connection parameters come from MQ_* environment variables, optionally
// loaded from a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/zoh/mqconsume"
	"github.com/zoh/mqconsume/internal/config"
	"github.com/zoh/mqconsume/mqclient"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mqconsume", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		envFile    = fs.String("env-file", ".env", "file with MQ_* variables, ignored when missing")
		statusAddr = fs.String("status-addr", "", "serve /healthz and /metrics on this address (overrides MQ_STATUS_ADDR)")
		browse     = fs.Bool("browse", false, "browse messages without removing them")
		syncpoint  = fs.Bool("syncpoint", false, "get under syncpoint and commit after each message is printed")
		logLevel   = fs.String("log-level", "", "log level (overrides MQ_LOG_LEVEL)")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: mqconsume [flags] QUEUE [QUEUE...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "error: a queue name is required")
		fs.Usage()
		return 2
	}
	if *browse && *syncpoint {
		fmt.Fprintln(stderr, "error: -browse and -syncpoint are exclusive")
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *statusAddr != "" {
		cfg.StatusAddr = *statusAddr
	}

	l := logrus.New()
	l.SetOutput(stderr)
	l.SetLevel(cfg.Level())
	log := logrus.NewEntry(l).WithField("pkg", "mqconsume")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialer, err := mqclient.NewDialer(cfg.Env, log)
	if err != nil {
		log.Errorf("invalid connection settings: %v", err)
		return 1
	}

	mode := mqconsume.ModeGet
	switch {
	case *browse:
		mode = mqconsume.ModeBrowse
	case *syncpoint:
		mode = mqconsume.ModeGetSyncpoint
	}

	reg := prometheus.NewRegistry()
	metrics := mqconsume.NewMetrics(reg)

	opts := append(cfg.Options(),
		mqconsume.WithLogger(log),
		mqconsume.WithOpenMode(mode),
		mqconsume.WithMetrics(metrics),
	)

	sink := mqconsume.WriteLines(stdout, log)
	consumers := make([]*mqconsume.Consumer, 0, fs.NArg())
	for _, queue := range fs.Args() {
		c, err := mqconsume.New(queue, dialer, sink, opts...)
		if err != nil {
			log.Errorf("queue %q: %v", queue, err)
			return 2
		}
		consumers = append(consumers, c)
	}

	if cfg.StatusAddr != "" {
		router := mqconsume.NewStatusRouter(reg, consumers...)
		go func() {
			if err := mqconsume.ServeStatus(ctx, cfg.StatusAddr, router, log); err != nil {
				log.Warnf("status server: %v", err)
			}
		}()
	}

	err = mqconsume.RunGroup(ctx, consumers...)
	if err != nil && !errors.Is(err, mqconsume.ErrCancelled) {
		log.Errorf("consumer stopped: %v", err)
		return 1
	}
	log.Info("Stopped")
	return 0
}

// Command watchsim replays a scripted viewing through the coverage tracker
// and sends the resulting reports to the BFF, like an embedded player would.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/mediawatch/internal/platform/auth"
	"github.com/example/mediawatch/internal/platform/logging"
	"github.com/example/mediawatch/internal/playback"
	"github.com/example/mediawatch/services/watchsim/internal/trace"
)

type printReporter struct {
	log *zap.Logger
}

func (p printReporter) Report(_ context.Context, r playback.Report) error {
	p.log.Info("report", zap.Int64("module_id", r.ModuleID), zap.Int("percentage", r.Percentage))
	return nil
}

func main() {
	var (
		tracePath = flag.String("trace", "", "path to a YAML playback trace")
		bffURL    = flag.String("bff", envOr("BFF_URL", "http://localhost:8080"), "BFF base URL")
		token     = flag.String("token", os.Getenv("WATCHSIM_TOKEN"), "bearer token; issued from -jwt-secret when empty")
		secret    = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "HS256 secret for issuing a development token")
		user      = flag.String("user", "watchsim", "subject of the issued token")
		speed     = flag.Float64("speed", 8, "playback speed factor; 0 replays without pacing")
		dryRun    = flag.Bool("dry-run", false, "log reports instead of sending them")
		logLevel  = flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level")
	)
	flag.Parse()

	log, err := logging.NewWithFormat(*logLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: watchsim -trace file.yaml [-bff url] [-dry-run]")
		os.Exit(2)
	}
	tr, err := trace.Load(*tracePath)
	if err != nil {
		log.Error("load trace", zap.Error(err))
		os.Exit(1)
	}

	var reporter playback.Reporter = printReporter{log: log}
	if !*dryRun {
		bearer := strings.TrimSpace(*token)
		if bearer == "" {
			if *secret == "" {
				log.Error("either -token or -jwt-secret is required unless -dry-run is set")
				os.Exit(2)
			}
			bearer, err = auth.Issue([]byte(*secret), *user, []string{auth.CapView}, time.Hour)
			if err != nil {
				log.Error("issue token", zap.Error(err))
				os.Exit(1)
			}
		}
		reporter = playback.NewHTTPReporter(*bffURL, bearer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := playback.NewSession(playback.Options{
		ModuleID: tr.ModuleID,
		Reporter: reporter,
		Logger:   log,
		OnProgress: func(pct int) {
			log.Debug("progress", zap.Int("percentage", pct))
		},
	})

	events := make(chan playback.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx, events)
	}()

	start := time.Now()
	prev := 0.0
feed:
	for _, ev := range tr.Events() {
		if *speed > 0 && ev.Kind == playback.TimeUpdate {
			if gap := ev.CurrentTime - prev; gap > 0 && gap <= 5*tr.Step {
				select {
				case <-ctx.Done():
					break feed
				case <-time.After(time.Duration(gap / *speed * float64(time.Second))):
				}
			}
			prev = ev.CurrentTime
		}
		select {
		case <-ctx.Done():
			break feed
		case events <- ev:
		}
	}
	close(events)
	<-done

	if ctx.Err() != nil {
		sess.Close()
	} else {
		sess.Wait()
	}

	log.Info("replay finished",
		zap.String("trace", tr.Name),
		zap.Int64("module_id", tr.ModuleID),
		zap.Int("percentage", sess.Tracker().Percentage()),
		zap.Int("intervals", len(sess.Tracker().Intervals())),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	dimaging "github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/doc-autocapture/internal/capture"
	"github.com/ironsheep/doc-autocapture/internal/config"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
	"github.com/ironsheep/doc-autocapture/internal/logging"
	"github.com/ironsheep/doc-autocapture/internal/server"
	"github.com/ironsheep/doc-autocapture/internal/validation"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("autocapture %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "autocapture: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "autocapture: %v\n", err)
		os.Exit(2)
	}

	if len(os.Args) > 1 && os.Args[1] == "replay" {
		if err := runReplay(cfg, logger, os.Args[2:]); err != nil {
			logger.Fatalf("Replay error: %v", err)
		}
		return
	}

	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Autocapture MCP server starting")

	srv, err := server.New(
		server.WithConfig(cfg),
		server.WithLogger(logger),
		server.WithVersion(Version),
	)
	if err != nil {
		logger.Fatal(err)
	}
	if err := srv.Run(); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("autocapture - document auto-capture core")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  autocapture                      Run the MCP server on stdin/stdout")
	fmt.Println("  autocapture replay [flags] FILES  Play frame images through a live capture session")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Replay flags:")
	fmt.Println("  -loop            Restart from the first frame after the last one")
	fmt.Println("  -out DIR         Write each captured document as PNG into DIR")
	fmt.Println("  -duration D      Stop after D (default: frames x detect interval + holding time)")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  AUTOCAPTURE_LOG_LEVEL=debug          Log level (logs go to stderr)")
	fmt.Println("  AUTOCAPTURE_LOG_FILE=path            Also log to a rotating file")
	fmt.Println("  AUTOCAPTURE_HOLDING_TIME=2000        Hold time before capture, ms or duration")
	fmt.Println("  AUTOCAPTURE_FEATURES=contour,position")
	fmt.Println("  AUTOCAPTURE_STRATEGY=area|edge")
	fmt.Println("  AUTOCAPTURE_BACKEND=native           Detection backend")
	fmt.Println()
	fmt.Println("The MCP server communicates via MCP protocol over stdin/stdout.")
}

// replayLine is one JSON line written to stdout during replay.
type replayLine struct {
	Type     string                       `json:"type"`
	Time     time.Time                    `json:"time"`
	Frame    string                       `json:"frame,omitempty"`
	Message  string                       `json:"message,omitempty"`
	Results  []validation.DetectionResult `json:"results,omitempty"`
	Event    *capture.Event               `json:"event,omitempty"`
	Snapshot string                       `json:"snapshot,omitempty"`
}

func runReplay(cfg *config.Config, logger *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	loop := fs.Bool("loop", false, "restart after the last frame")
	outDir := fs.String("out", "", "directory for captured documents")
	duration := fs.Duration("duration", 0, "stop after this long")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("replay needs at least one frame file or directory")
	}

	var paths []string
	for _, arg := range fs.Args() {
		found, err := imaging.ListFrames(arg)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if *duration == 0 {
		*duration = time.Duration(len(paths))*cfg.DetectInterval + cfg.Guidance.HoldingTime
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return err
		}
	}

	seq := imaging.NewSequence(imaging.NewFrameCache(), paths)
	seq.Loop = *loop

	enc := json.NewEncoder(os.Stdout)
	emit := func(line replayLine) {
		if err := enc.Encode(line); err != nil {
			logger.WithError(err).Error("Failed to write replay output")
		}
	}

	listener := capture.ListenerFuncs{
		Feedback: func(text string) {
			emit(replayLine{Type: "feedback", Time: time.Now(), Frame: seq.Current(), Message: text})
		},
		Capture: func(ev capture.Event) {
			line := replayLine{Type: "capture", Time: ev.Time, Frame: seq.Current(), Event: &ev}
			if *outDir != "" && ev.Snapshot != nil {
				name := filepath.Join(*outDir, fmt.Sprintf("capture-%s-%d.png", ev.SessionID, ev.Time.UnixMilli()))
				if err := dimaging.Save(ev.Snapshot, name); err != nil {
					logger.WithError(err).Error("Failed to save capture")
				} else {
					line.Snapshot = name
				}
			}
			emit(line)
		},
	}

	opts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}
	opts = append(opts, capture.WithLogger(logger))

	session, err := capture.NewSession(seq, listener, opts...)
	if err != nil {
		return err
	}
	sched := capture.NewScheduler(time.Now())
	if err := session.Start(sched); err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	logger.WithFields(logrus.Fields{
		logging.SessionIDKey: session.ID(),
		"frames":             len(paths),
		"duration":           duration.String(),
	}).Info("Replay started")

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.WithField("captures", session.Captures()).Info("Replay finished")
	return nil
}

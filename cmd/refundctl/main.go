// Command refundctl inspects orders and walks an operator through a refund
// against a running orderdesk API.
//
//	refundctl [flags] show   <order-id>
//	refundctl [flags] quote  <order-id> -mode partial -items ID,ID [-fee]
//	refundctl [flags] refund <order-id> -mode entire-order|partial|remaining [-items ID,ID] [-fee] [-restock] [-yes]
//	refundctl [flags] status <order-id> <status>
//	refundctl [flags] ready  <order-id> <item-id> [true|false]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"orderdesk/internal/client"
	"orderdesk/internal/model"

	"github.com/rs/zerolog"
)

var errUsage = errors.New("usage: refundctl [flags] show|quote|refund|status|ready <order-id> [args]")

type app struct {
	client *client.Client
	actor  *model.Actor
	in     *bufio.Reader
	out    io.Writer
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("refundctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr("ORDERDESK_URL", "http://localhost:8080"), "orderdesk API base URL")
	apiKey := fs.String("api-key", os.Getenv("API_KEY"), "API key")
	actorID := fs.String("actor-id", os.Getenv("ORDERDESK_ACTOR_ID"), "operator ID sent with mutations")
	actorEmail := fs.String("actor-email", os.Getenv("ORDERDESK_ACTOR_EMAIL"), "operator email sent with mutations")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	rest := fs.Args()
	if len(rest) < 2 {
		return errUsage
	}

	var actor *model.Actor
	if *actorID != "" {
		actor = &model.Actor{ID: *actorID, Email: *actorEmail}
	}
	a := &app{
		client: client.New(*server, *apiKey, actor),
		actor:  actor,
		in:     bufio.NewReader(stdin),
		out:    stdout,
		logger: logger,
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "show":
		return a.show(ctx, cmdArgs)
	case "quote":
		return a.quote(ctx, cmdArgs)
	case "refund":
		return a.refund(ctx, cmdArgs)
	case "status":
		return a.status(ctx, cmdArgs)
	case "ready":
		return a.ready(ctx, cmdArgs)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

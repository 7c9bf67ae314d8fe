package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"newsrelay/internal/console"

	"github.com/joho/godotenv"
)

const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

type cli struct {
	console  *console.Console
	renderer console.Renderer
	out      io.Writer
	scanner  *bufio.Scanner
	timeout  time.Duration
}

func main() {
	_ = godotenv.Load()

	defaultEndpoint := console.DefaultEndpoint
	if v := os.Getenv("CONSOLE_ENDPOINT"); v != "" {
		defaultEndpoint = v
	}

	endpoint := flag.String("endpoint", defaultEndpoint, "relay query endpoint")
	query := flag.String("q", "", "run a single query and exit")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	timeout := flag.Duration("timeout", 0, "per-query timeout (0 waits for the relay)")
	verbose := flag.Bool("v", false, "log requests to stderr")
	flag.Parse()

	logLevel := slog.LevelError
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	c := &cli{
		renderer: console.Renderer{Color: !*noColor},
		out:      os.Stdout,
		scanner:  bufio.NewScanner(os.Stdin),
		timeout:  *timeout,
	}
	c.console = console.New(console.NewClient(*endpoint, nil), logger, console.WithOnChange(c.render))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *query != "" {
		c.submit(ctx, *query)
		if c.console.Snapshot().Status == console.StatusError {
			os.Exit(1)
		}
		return
	}

	c.run(ctx, *endpoint)
}

func (c *cli) paint(color, s string) string {
	if !c.renderer.Color {
		return s
	}
	return color + s + colorReset
}

func (c *cli) render(snap console.Snapshot) {
	_ = c.renderer.Render(c.out, snap)
}

func (c *cli) submit(ctx context.Context, query string) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.console.Submit(ctx, query); err != nil {
		fmt.Fprintln(c.out, c.paint(colorYellow, "⚠ "+err.Error()))
	}
}

func (c *cli) run(ctx context.Context, endpoint string) {
	fmt.Fprintln(c.out, c.paint(colorCyan, "News query console"))
	fmt.Fprintln(c.out, c.paint(colorBlue, "Relay: "+endpoint))
	fmt.Fprintln(c.out, "Type a query, or :open N, :close N, :dismiss, :quit")

	for {
		fmt.Fprint(c.out, "\n> ")
		if !c.scanner.Scan() {
			fmt.Fprintln(c.out)
			return
		}
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			c.submit(ctx, line)
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case ":quit", ":q":
			fmt.Fprintln(c.out, c.paint(colorGreen, "✓ Goodbye!"))
			return
		case ":dismiss":
			c.console.DismissError()
		case ":open", ":close":
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				fmt.Fprintln(c.out, c.paint(colorYellow, "⚠ usage: "+cmd+" N"))
				continue
			}
			if err := c.console.SetExpanded(n-1, cmd == ":open"); err != nil {
				fmt.Fprintln(c.out, c.paint(colorYellow, "⚠ "+err.Error()))
			}
		default:
			fmt.Fprintln(c.out, c.paint(colorYellow, "⚠ unknown command "+cmd))
		}
	}
}

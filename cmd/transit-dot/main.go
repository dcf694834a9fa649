// Command transit-dot renders a YAML machine definition as Graphviz DOT or SVG.
//
//	transit-dot -in order.yaml -out order.svg -format svg
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/anggasct/transit/pkg/config"
	"github.com/anggasct/transit/pkg/definition"
	"github.com/anggasct/transit/pkg/logger"
	"github.com/anggasct/transit/visualization"
)

// Config holds the environment defaults; flags take precedence
type Config struct {
	Log     logger.Config
	Format  string `env:"TRANSIT_DOT_FORMAT" envDefault:"dot"`
	RankDir string `env:"TRANSIT_DOT_RANKDIR" envDefault:"LR"`
}

type options struct {
	in        string
	out       string
	format    string
	rankDir   string
	highlight string
	showOpts  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.FromConfig(cfg.Log, logger.WithAttr(logger.Component("transit-dot")))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	opts := options{}
	flag.StringVar(&opts.in, "in", "", "path to the YAML machine definition (required)")
	flag.StringVar(&opts.out, "out", "", "output file, stdout when empty")
	flag.StringVar(&opts.format, "format", cfg.Format, "output format: dot or svg")
	flag.StringVar(&opts.rankDir, "rankdir", cfg.RankDir, "graph direction: TB, LR, BT or RL")
	flag.StringVar(&opts.highlight, "highlight", "", "state to highlight")
	flag.BoolVar(&opts.showOpts, "options", false, "include state options in node labels")
	flag.Parse()

	if err := run(ctx, log, opts, os.Stdout); err != nil {
		log.ErrorContext(ctx, "render failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, opts options, stdout io.Writer) error {
	if opts.in == "" {
		return errors.New("-in is required")
	}

	doc, err := definition.Load(opts.in)
	if err != nil {
		return err
	}
	graph, err := definition.Graph(doc)
	if err != nil {
		return err
	}

	dotOpts := visualization.DefaultDOTOptions()
	dotOpts.RankDirection = opts.rankDir
	dotOpts.Highlight = opts.highlight
	dotOpts.ShowOptions = opts.showOpts
	gen := visualization.NewDOTGenerator(graph, dotOpts)

	var content string
	switch opts.format {
	case "dot":
		content, err = gen.Generate()
	case "svg":
		content, err = gen.GenerateSVG(ctx)
	default:
		return fmt.Errorf("unknown format '%s'", opts.format)
	}
	if err != nil {
		return err
	}

	if opts.out == "" {
		_, err = io.WriteString(stdout, content)
		return err
	}
	if err := os.WriteFile(opts.out, []byte(content), 0644); err != nil {
		return err
	}
	log.InfoContext(ctx, "graph written",
		logger.Machine(graph.Name),
		slog.String("path", opts.out),
		slog.Int("states", len(graph.States)),
		slog.Int("edges", len(graph.Edges)),
	)
	return nil
}

// Package main implements graphc, a developer tool that loads a YAML
// graph description, compiles it against a set of declared sinks, and
// prints the resulting schedule. It never touches the audio thread or
// an Executor - it is a compile-time inspection tool only.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/justyntemme/audiograph/pkg/framework/graph"
)

const version = "0.1.0"

type config struct {
	graphPath   string
	sinks       string
	format      string
	showVersion bool
}

func parseFlags() config {
	var cfg config
	pflag.StringVar(&cfg.graphPath, "graph", "", "Path to a YAML graph description")
	pflag.StringVar(&cfg.sinks, "sinks", "", "Comma-separated list of node names to declare as sinks")
	pflag.StringVar(&cfg.format, "format", "tree", "Output format: tree|dot|tasks")
	pflag.BoolVarP(&cfg.showVersion, "version", "v", false, "Show version and exit")
	pflag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("graphc v%s\n", version)
		os.Exit(0)
	}

	if cfg.graphPath == "" || cfg.sinks == "" {
		pterm.Error.Println("both --graph and --sinks are required")
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(cfg config) error {
	f, err := os.Open(cfg.graphPath)
	if err != nil {
		return fmt.Errorf("graphc: open graph: %w", err)
	}
	defer f.Close()

	g, names, err := graph.LoadGraph(f)
	if err != nil {
		return fmt.Errorf("graphc: load graph: %w", err)
	}

	pterm.DefaultSection.Println("Graph")
	fmt.Println(g.Tree())

	s := g.Scheduler()
	for _, name := range strings.Split(cfg.sinks, ",") {
		name = strings.TrimSpace(name)
		id, ok := names[name]
		if !ok {
			return fmt.Errorf("graphc: unknown sink node %q", name)
		}
		s.AddSinkNode(id)
	}

	schedule := graph.Compile(s)

	pterm.DefaultSection.Println("Schedule")
	switch cfg.format {
	case "tree", "tasks":
		fmt.Println(schedule.Describe())
	case "dot":
		fmt.Println(g.DOT())
	default:
		return fmt.Errorf("graphc: unknown --format %q (want tree|dot|tasks)", cfg.format)
	}

	pterm.DefaultSection.Println("Summary")
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithData(pterm.TableData{
			{"metric", "value"},
			{"buffers", fmt.Sprintf("%d", schedule.NumBuffers)},
			{"tasks", fmt.Sprintf("%d", len(schedule.Tasks))},
		}).
		Render()
}

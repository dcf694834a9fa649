// Package visualization renders machine graphs as Graphviz DOT and SVG.
package visualization

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/transit"
)

// DOTGenerator generates Graphviz DOT format representations of state machines
type DOTGenerator struct {
	graph   transit.Graph
	options DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowEvents      bool
	ShowOptions     bool
	RankDirection   string // "TB", "LR", "BT", "RL"
	NodeShape       string
	TerminalShape   string
	TransitionStyle string
	// Highlight marks one state, typically a target's current state
	Highlight string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowEvents:      true,
		RankDirection:   "LR",
		NodeShape:       "box",
		TerminalShape:   "doublecircle",
		TransitionStyle: "solid",
	}
}

// NewDOTGenerator creates a new DOT generator for the given graph
func NewDOTGenerator(graph transit.Graph, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		graph:   graph,
		options: opts,
	}
}

// Generate creates a DOT representation of the state machine
func (g *DOTGenerator) Generate() (string, error) {
	if len(g.graph.States) == 0 {
		return "", fmt.Errorf("machine '%s' has no states", g.graph.Name)
	}

	var dot strings.Builder

	fmt.Fprintf(&dot, "digraph %s {\n", quote(g.graph.Name))
	fmt.Fprintf(&dot, "  rankdir=%s;\n", g.options.RankDirection)
	fmt.Fprintf(&dot, "  node [shape=%s];\n", g.options.NodeShape)
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)
	dot.WriteString("\n")
	g.generateTransitions(&dot)

	dot.WriteString("}\n")
	return dot.String(), nil
}

func (g *DOTGenerator) generateStates(dot *strings.Builder) {
	dot.WriteString("  // States\n")
	dot.WriteString("  \"__start\" [shape=point];\n")
	fmt.Fprintf(dot, "  \"__start\" -> %s;\n", quote(g.graph.Initial))

	for _, state := range g.graph.States {
		g.generateStateNode(dot, state)
	}
}

func (g *DOTGenerator) generateStateNode(dot *strings.Builder, state transit.State) {
	shape := g.options.NodeShape
	fillColor := "lightblue"
	label := state.Name

	switch {
	case state.Name == g.graph.Initial:
		fillColor = "lightgreen"
		label += `\n(initial)`
	case g.graph.Terminal(state.Name):
		shape = g.options.TerminalShape
		fillColor = "lightcoral"
	}
	if state.Name == g.options.Highlight {
		fillColor = "gold"
	}

	if g.options.ShowOptions && len(state.Options) > 0 {
		label += `\n` + escape(fmt.Sprint(state.Options))
	}

	fmt.Fprintf(dot, "  %s [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
		quote(state.Name), shape, fillColor, label)
}

func (g *DOTGenerator) generateTransitions(dot *strings.Builder) {
	dot.WriteString("  // Transitions\n")

	for _, edge := range g.graph.Edges {
		attrs := []string{"style=" + g.options.TransitionStyle}
		if g.options.ShowEvents {
			attrs = append(attrs, fmt.Sprintf("label=%s", quote(edge.Event)))
		}
		fmt.Fprintf(dot, "  %s -> %s [%s];\n", quote(edge.From), quote(edge.To), strings.Join(attrs, " "))
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(graph transit.Graph, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(graph, options...),
	}
}

// Generate creates an SVG representation of the state machine
func (g *SVGGenerator) Generate(ctx context.Context) (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed): %s", err, stderr.String())
	}

	return out.String(), nil
}

// GenerateSVG is a shortcut for rendering through an SVGGenerator
func (g *DOTGenerator) GenerateSVG(ctx context.Context) (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate(ctx)
}

func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

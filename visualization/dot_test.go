package visualization_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/visualization"
)

type light struct{ state string }

func trafficGraph(t *testing.T) transit.Graph {
	t.Helper()

	machine, err := transit.NewMachine[*light]("traffic").
		Initial("green").
		State("yellow", transit.WithStateOption("timeout", "3s")).
		States("red", "off").
		Event("slow", func(e *transit.EventBuilder[*light]) { e.Transition(transit.States("green"), "yellow") }).
		Event("stop", func(e *transit.EventBuilder[*light]) { e.Transition(transit.States("yellow"), "red") }).
		Event("go", func(e *transit.EventBuilder[*light]) { e.Transition(transit.States("red"), "green") }).
		Event("shutdown", func(e *transit.EventBuilder[*light]) {
			e.Transition(transit.AllStatesExcept("off"), "off")
		}).
		GetStateWith(transit.GetterFunc[*light](func(_ context.Context, l *light) (string, error) { return l.state, nil })).
		SetStateWith(transit.SetterFunc[*light](func(_ context.Context, l *light, tr *transit.Transition[*light]) (bool, error) {
			l.state = tr.To().Name
			return true, nil
		})).
		Build()
	if err != nil {
		t.Fatalf("Failed to build machine: %v", err)
	}
	return machine.Graph()
}

func TestDOTGeneration(t *testing.T) {
	generator := visualization.NewDOTGenerator(trafficGraph(t))

	dotContent, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	expected := []string{
		`digraph "traffic"`,
		`rankdir=LR`,
		`"__start" -> "green"`,
		`"green" -> "yellow" [style=solid label="slow"]`,
		`"red" -> "green" [style=solid label="go"]`,
		`"yellow" -> "off" [style=solid label="shutdown"]`,
		`fillcolor=lightgreen label="green\n(initial)"`,
		`"off" [shape=doublecircle`,
	}
	for _, want := range expected {
		if !strings.Contains(dotContent, want) {
			t.Errorf("DOT content should contain %q\n%s", want, dotContent)
		}
	}

	if strings.Contains(dotContent, `"off" -> "off"`) {
		t.Error("DOT content should not contain a self edge on off")
	}
}

func TestDOTGenerationWithOptions(t *testing.T) {
	options := visualization.DefaultDOTOptions()
	options.ShowEvents = false
	options.ShowOptions = true
	options.RankDirection = "TB"
	options.Highlight = "red"

	dotContent, err := visualization.NewDOTGenerator(trafficGraph(t), options).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, "rankdir=TB") {
		t.Error("DOT content should use the configured rank direction")
	}
	if strings.Contains(dotContent, `label="slow"`) {
		t.Error("DOT content should not label edges when events are hidden")
	}
	if !strings.Contains(dotContent, "timeout:3s") {
		t.Error("DOT content should list state options")
	}
	if !strings.Contains(dotContent, `"red" [shape=box style="filled" fillcolor=gold`) {
		t.Error("DOT content should highlight the selected state")
	}
}

func TestDOTGenerationEmptyGraph(t *testing.T) {
	_, err := visualization.NewDOTGenerator(transit.Graph{Name: "empty"}).Generate()
	if err == nil {
		t.Error("Expected error for a graph without states")
	}
}

func TestDOTGenerateToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.dot")

	if err := visualization.NewDOTGenerator(trafficGraph(t)).GenerateToFile(path); err != nil {
		t.Fatalf("Failed to write DOT file: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read DOT file: %v", err)
	}
	if !strings.HasPrefix(string(content), `digraph "traffic"`) {
		t.Errorf("Unexpected file content:\n%s", content)
	}
}

func TestSVGGeneration(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("Graphviz is not installed")
	}

	svg, err := visualization.NewSVGGenerator(trafficGraph(t)).Generate(context.Background())
	if err != nil {
		t.Fatalf("Failed to generate SVG: %v", err)
	}
	if !strings.Contains(svg, "<svg") {
		t.Error("SVG output should contain an svg element")
	}
}

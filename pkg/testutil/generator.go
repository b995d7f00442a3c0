// Package testutil provides outline fixtures and tree assertions for tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
)

// Fixture is one outline node with its children.
type Fixture struct {
	Label    string
	Expanded bool
	Children []Fixture
}

// Count returns the number of nodes in fs, descendants included.
func Count(fs []Fixture) int {
	n := 0
	for _, f := range fs {
		n += 1 + Count(f.Children)
	}
	return n
}

// Parse reads an indented outline, two spaces per level:
//
//	A
//	  B
//	    D
//	  C
//
// A trailing "+" on a label marks the node expanded ("B+"). Blank lines are
// skipped. It panics on a line indented more than one level past its
// predecessor, since fixtures are written by hand.
func Parse(text string) []Fixture {
	type frame struct {
		depth int
		list  *[]Fixture
	}
	var roots []Fixture
	stack := []frame{{depth: -1, list: &roots}}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		depth := (len(line) - len(trimmed)) / 2
		for stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if depth > stack[len(stack)-1].depth+1 {
			panic(fmt.Sprintf("testutil: %q is indented too deep", line))
		}
		label := strings.TrimSpace(trimmed)
		f := Fixture{Label: label}
		if strings.HasSuffix(label, "+") {
			f.Label, f.Expanded = strings.TrimSuffix(label, "+"), true
		}
		list := stack[len(stack)-1].list
		*list = append(*list, f)
		stack = append(stack, frame{depth: depth, list: &(*list)[len(*list)-1].Children})
	}
	return roots
}

// GeneratorConfig controls outline generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed for determinism
	LabelPrefix string  // Prefix for labels (default: "n")
	ExpandRatio float64 // Share of inner nodes generated expanded
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42,
		LabelPrefix: "n",
		ExpandRatio: 0.5,
	}
}

// Generator creates outline fixtures with various shapes. Labels are
// numbered in creation order.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.LabelPrefix == "" {
		cfg.LabelPrefix = "n"
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) label() string {
	s := fmt.Sprintf("%s%d", g.cfg.LabelPrefix, g.next)
	g.next++
	return s
}

// Flat creates size root nodes without children.
func (g *Generator) Flat(size int) []Fixture {
	out := make([]Fixture, size)
	for i := range out {
		out[i] = Fixture{Label: g.label()}
	}
	return out
}

// Chain creates a single path of size nodes, each the only child of the
// one before. Every node but the last is expanded.
func (g *Generator) Chain(size int) []Fixture {
	if size <= 0 {
		return nil
	}
	f := Fixture{Label: g.label()}
	if size > 1 {
		f.Expanded = true
		f.Children = g.Chain(size - 1)
	}
	return []Fixture{f}
}

// Tree creates one root with the given depth and branching factor, fully
// expanded.
func (g *Generator) Tree(depth, breadth int) []Fixture {
	return []Fixture{g.tree(max(depth, 0), max(breadth, 1))}
}

func (g *Generator) tree(depth, breadth int) Fixture {
	f := Fixture{Label: g.label()}
	if depth == 0 {
		return f
	}
	f.Expanded = true
	f.Children = make([]Fixture, breadth)
	for i := range f.Children {
		f.Children[i] = g.tree(depth-1, breadth)
	}
	return f
}

// Random creates size nodes spread over at most maxDepth levels. Inner
// nodes are expanded with probability ExpandRatio.
func (g *Generator) Random(size, maxDepth int) []Fixture {
	var roots []Fixture
	for g.next < size || len(roots) == 0 {
		start := g.next
		roots = append(roots, g.random(size, max(maxDepth, 1)))
		if g.next == start {
			break
		}
	}
	return roots
}

func (g *Generator) random(size, depth int) Fixture {
	f := Fixture{Label: g.label()}
	if depth <= 1 {
		return f
	}
	kids := g.rng.Intn(4)
	for i := 0; i < kids && g.next < size; i++ {
		f.Children = append(f.Children, g.random(size, depth-1))
	}
	f.Expanded = len(f.Children) > 0 && g.rng.Float64() < g.cfg.ExpandRatio
	return f
}

// Visible flattens fs into the labels a tree shows: expanded nodes show
// their children, collapsed nodes hide them.
func Visible(fs []Fixture) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Label)
		if f.Expanded {
			out = append(out, Visible(f.Children)...)
		}
	}
	return out
}

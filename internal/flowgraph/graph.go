// Package flowgraph is the execution-engine side of a receiver: edge
// bookkeeping for a block graph, the reconfiguration lock that keeps
// streaming work out of a half-wired graph, and an event recorder.
package flowgraph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
)

// Endpoint is one port of a named block.
type Endpoint struct {
	Block string
	Port  int
}

// Port returns an endpoint for block's port.
func Port(block string, port int) Endpoint {
	return Endpoint{Block: block, Port: port}
}

// String formats the endpoint as block:port.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Block, e.Port)
}

// Edge connects an output port to an input port.
type Edge struct {
	From Endpoint
	To   Endpoint
}

// String formats the edge as from -> to.
func (e Edge) String() string {
	return e.From.String() + " -> " + e.To.String()
}

// Graph records which output feeds which input. An input port has at most
// one source; an output may fan out.
type Graph struct {
	mu    sync.Mutex
	edges []Edge
	rec   *Recorder
}

// NewGraph creates an empty graph. rec may be nil.
func NewGraph(rec *Recorder) *Graph {
	return &Graph{rec: rec}
}

// Connect chains the given endpoints: Connect(a, b, c) adds a -> b and
// b -> c. Either every edge is added or none is.
func (g *Graph) Connect(chain ...Endpoint) error {
	if len(chain) < 2 {
		return fmt.Errorf("%w: connect needs at least two endpoints", errs.ErrInvalidArgument)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pending := make([]Edge, 0, len(chain)-1)
	for i := 1; i < len(chain); i++ {
		e := Edge{From: chain[i-1], To: chain[i]}
		if e.From.Block == "" || e.To.Block == "" {
			return fmt.Errorf("%w: edge %s has an unnamed block", errs.ErrInvalidArgument, e)
		}
		if src, ok := g.sourceLocked(e.To); ok {
			return fmt.Errorf("%w: input %s already fed by %s", errs.ErrInvalidArgument, e.To, src)
		}
		if slices.ContainsFunc(pending, func(p Edge) bool { return p.To == e.To }) {
			return fmt.Errorf("%w: input %s connected twice", errs.ErrInvalidArgument, e.To)
		}
		pending = append(pending, e)
	}

	for _, e := range pending {
		g.edges = append(g.edges, e)
		g.rec.Record("connect " + e.String())
	}
	return nil
}

// Replace disconnects every edge and connects the given chains in their
// place. The chains are validated against an empty graph first, so on error
// the current edges are left untouched.
func (g *Graph) Replace(chains ...[]Endpoint) error {
	var pending []Edge
	for _, chain := range chains {
		if len(chain) < 2 {
			return fmt.Errorf("%w: connect needs at least two endpoints", errs.ErrInvalidArgument)
		}
		for i := 1; i < len(chain); i++ {
			e := Edge{From: chain[i-1], To: chain[i]}
			if e.From.Block == "" || e.To.Block == "" {
				return fmt.Errorf("%w: edge %s has an unnamed block", errs.ErrInvalidArgument, e)
			}
			if slices.ContainsFunc(pending, func(p Edge) bool { return p.To == e.To }) {
				return fmt.Errorf("%w: input %s connected twice", errs.ErrInvalidArgument, e.To)
			}
			pending = append(pending, e)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = g.edges[:0]
	g.rec.Record("disconnect_all")
	for _, e := range pending {
		g.edges = append(g.edges, e)
		g.rec.Record("connect " + e.String())
	}
	return nil
}

// DisconnectAll removes every edge.
func (g *Graph) DisconnectAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = g.edges[:0]
	g.rec.Record("disconnect_all")
}

// Edges returns a copy of the current edges in connection order.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	return slices.Clone(g.edges)
}

// SourceOf returns the output feeding an input port.
func (g *Graph) SourceOf(to Endpoint) (Endpoint, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.sourceLocked(to)
}

func (g *Graph) sourceLocked(to Endpoint) (Endpoint, bool) {
	for _, e := range g.edges {
		if e.To == to {
			return e.From, true
		}
	}
	return Endpoint{}, false
}

// Missing returns the required edges the graph does not have.
func (g *Graph) Missing(required ...Edge) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var missing []Edge
	for _, r := range required {
		if !slices.Contains(g.edges, r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Complete reports whether every required edge is present.
func (g *Graph) Complete(required ...Edge) bool {
	return len(g.Missing(required...)) == 0
}

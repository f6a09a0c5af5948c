// Package diagram renders a successfully built task graph to an SVG for
// the CLI's --diagram dry runs. A graph whose build failed (for example
// with a dependency failure) is never returned by graph.Build, so nothing
// is rendered for it. No teacher equivalent exists in
// cuemby-warren; grounded on the pack's use of goccy/go-graphviz
// (matzehuels-stacktower) as the ecosystem's graph-rendering library.
package diagram

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/oshied/task-core/pkg/graph"
)

// RenderSVG lays out g with graphviz's dot engine and writes the result
// as SVG bytes.
func RenderSVG(ctx context.Context, g *graph.Graph) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create graphviz context: %w", err)
	}
	defer gv.Close()

	gr, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	defer func() {
		_ = gr.Close()
	}()

	nodes := make(map[string]*cgraph.Node, len(g.Tasks))
	for id, inst := range g.Tasks {
		n, err := gr.CreateNodeByName(id)
		if err != nil {
			return nil, fmt.Errorf("create node %s: %w", id, err)
		}
		n.SetLabel(fmt.Sprintf("%s\\n(%s)", inst.Definition.Name, inst.Definition.Driver))
		nodes[id] = n
	}

	for id := range g.Tasks {
		for _, childID := range g.Children(id) {
			if _, err := gr.CreateEdgeByName(id+"->"+childID, nodes[id], nodes[childID]); err != nil {
				return nil, fmt.Errorf("create edge %s->%s: %w", id, childID, err)
			}
		}
	}

	var buf []byte
	w := &byteSliceWriter{buf: &buf}
	if err := gv.Render(ctx, gr, graphviz.SVG, w); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return buf, nil
}

type byteSliceWriter struct {
	buf *[]byte
}

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

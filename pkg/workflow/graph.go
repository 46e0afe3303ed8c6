package workflow

import (
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// Graph indexes a flow's nodes by id and keeps each node's outgoing edges in
// declaration order. It is read-only after construction.
type Graph struct {
	flow     *models.Flow
	nodes    map[string]*models.FlowNode
	outgoing map[string][]*models.FlowEdge
	entry    *models.FlowNode
}

func NewGraph(flow *models.Flow) *Graph {
	g := &Graph{
		flow:     flow,
		nodes:    make(map[string]*models.FlowNode, len(flow.Nodes)),
		outgoing: make(map[string][]*models.FlowEdge, len(flow.Nodes)),
	}

	for _, node := range flow.Nodes {
		if node == nil {
			continue
		}

		g.nodes[node.ID] = node

		if g.entry == nil && node.Type == models.NodeTypeTrigger {
			g.entry = node
		}
	}

	for _, edge := range flow.Edges {
		if edge == nil {
			continue
		}

		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
	}

	return g
}

func (g *Graph) Flow() *models.Flow {
	return g.flow
}

func (g *Graph) Node(id string) (*models.FlowNode, bool) {
	node, ok := g.nodes[id]

	return node, ok
}

// Entry returns the trigger node, or nil when the flow has none.
func (g *Graph) Entry() *models.FlowNode {
	return g.entry
}

func (g *Graph) Outgoing(id string) []*models.FlowEdge {
	return g.outgoing[id]
}

// Edge returns the outgoing edge of source labeled exactly branch.
func (g *Graph) Edge(source, branch string) (*models.FlowEdge, bool) {
	for _, edge := range g.outgoing[source] {
		if edge.BranchLabel() == branch {
			return edge, true
		}
	}

	return nil, false
}

// Next resolves the node reached from source through branch. A default
// branch of a non-branching node also follows its only outgoing edge, so
// editors that tag plain edges with a handle name ("output", "next") still
// connect. Error and timeout edges are never taken implicitly.
func (g *Graph) Next(source, branch string) (string, bool) {
	if edge, ok := g.Edge(source, branch); ok {
		return edge.Target, true
	}

	if branch != models.DefaultBranch {
		return "", false
	}

	if node, ok := g.nodes[source]; ok && node.Type == models.NodeTypeCondition {
		return "", false
	}

	var candidate *models.FlowEdge

	for _, edge := range g.outgoing[source] {
		switch edge.BranchLabel() {
		case BranchError, BranchTimeout:
			continue
		}

		if candidate != nil {
			return "", false
		}

		candidate = edge
	}

	if candidate == nil {
		return "", false
	}

	return candidate.Target, true
}

package fsm

import "fmt"

// AddState registers a node in the graph.
func (m *Machine[T]) AddState(id StateID, name string, parentID StateID) *Node[T] {
	node := &Node[T]{ID: id, Name: name, ParentID: parentID}
	m.nodes[id] = node
	return node
}

// AddTransition appends a transition to sourceID's node.
func (m *Machine[T]) AddTransition(sourceID StateID, t Transition[T]) {
	if node, ok := m.nodes[sourceID]; ok {
		node.Transitions = append(node.Transitions, t)
	}
}

// OnEnter appends an entry action to a node.
func (m *Machine[T]) OnEnter(id StateID, fn ActionFunc[T]) {
	if node, ok := m.nodes[id]; ok {
		node.OnEnter = append(node.OnEnter, Action[T]{Func: fn})
	}
}

// OnExit appends an exit action to a node.
func (m *Machine[T]) OnExit(id StateID, fn ActionFunc[T]) {
	if node, ok := m.nodes[id]; ok {
		node.OnExit = append(node.OnExit, Action[T]{Func: fn})
	}
}

// CompilePaths computes the Root-to-leaf Path for every node. Must be
// called after all AddState calls and before AddRegion/Init.
func (m *Machine[T]) CompilePaths() error {
	for id, node := range m.nodes {
		path := make([]StateID, 0, 4)
		curr := node
		for curr != nil {
			path = append(path, curr.ID)
			if curr.ParentID == StateNone {
				break
			}
			var ok bool
			curr, ok = m.nodes[curr.ParentID]
			if !ok {
				return fmt.Errorf("fsm: node %d references missing parent", id)
			}
		}
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		node.Path = path
	}
	return nil
}

// AddRegion declares a parallel region with its initial state. Call
// before Init.
func (m *Machine[T]) AddRegion(name string, initial StateID) {
	m.regionInitials[name] = initial
}

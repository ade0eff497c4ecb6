package fsm

import "fmt"

// Init initializes every declared region, running OnEnter down each
// region's initial path.
func (m *Machine[T]) Init(ctx T) error {
	if len(m.regionInitials) == 0 {
		return fmt.Errorf("fsm: no regions declared")
	}
	for name, initial := range m.regionInitials {
		if err := m.initRegion(ctx, name, initial); err != nil {
			return fmt.Errorf("fsm: region %q: %w", name, err)
		}
	}
	return nil
}

func (m *Machine[T]) initRegion(ctx T, name string, initial StateID) error {
	node, ok := m.nodes[initial]
	if !ok {
		return fmt.Errorf("initial state %d not found", initial)
	}
	region := &RegionState{Name: name, ActiveStateID: initial, ActivePath: append([]StateID(nil), node.Path...)}
	m.regions[name] = region

	for _, id := range region.ActivePath {
		if n, ok := m.nodes[id]; ok {
			for _, a := range n.OnEnter {
				a.Func(ctx)
			}
		}
	}
	return nil
}

// Update evaluates tick (automatic) transitions for every unpaused
// region. Call once per simulation tick.
func (m *Machine[T]) Update(ctx T) {
	for _, region := range m.regions {
		if region.Paused {
			continue
		}
		m.updateRegion(ctx, region)
	}
}

func (m *Machine[T]) updateRegion(ctx T, region *RegionState) {
	if region.ActiveStateID == StateNone {
		return
	}
	currID := region.ActiveStateID
	for currID != StateNone {
		node := m.nodes[currID]
		for _, tr := range node.Transitions {
			if tr.Event == EventTick {
				if tr.Guard == nil || tr.Guard(ctx, region) {
					m.transitionRegion(ctx, region, tr.TargetID)
					return
				}
			}
		}
		currID = node.ParentID
	}
}

// HandleEvent routes an external event through every unpaused region,
// bubbling from the active leaf toward the root until a matching
// transition fires. Returns true if any region consumed the event.
func (m *Machine[T]) HandleEvent(ctx T, evt TransitionEvent) bool {
	handled := false
	for _, region := range m.regions {
		if region.Paused {
			continue
		}
		if m.handleEventInRegion(ctx, region, evt) {
			handled = true
		}
	}
	return handled
}

func (m *Machine[T]) handleEventInRegion(ctx T, region *RegionState, evt TransitionEvent) bool {
	if region.ActiveStateID == StateNone {
		return false
	}
	currID := region.ActiveStateID
	for currID != StateNone {
		node := m.nodes[currID]
		for _, tr := range node.Transitions {
			if tr.Event == evt {
				if tr.Guard == nil || tr.Guard(ctx, region) {
					m.transitionRegion(ctx, region, tr.TargetID)
					return true
				}
			}
		}
		currID = node.ParentID
	}
	return false
}

func (m *Machine[T]) transitionRegion(ctx T, region *RegionState, targetID StateID) {
	if region.ActiveStateID == targetID {
		return
	}
	target, ok := m.nodes[targetID]
	if !ok {
		panic(fmt.Sprintf("fsm: transition to unknown state %d in region %q", targetID, region.Name))
	}

	currentPath := region.ActivePath
	targetPath := target.Path

	lca := -1
	minLen := len(currentPath)
	if len(targetPath) < minLen {
		minLen = len(targetPath)
	}
	for i := 0; i < minLen; i++ {
		if currentPath[i] == targetPath[i] {
			lca = i
		} else {
			break
		}
	}

	for i := len(currentPath) - 1; i > lca; i-- {
		if node, ok := m.nodes[currentPath[i]]; ok {
			for _, a := range node.OnExit {
				a.Func(ctx)
			}
		}
	}
	for i := lca + 1; i < len(targetPath); i++ {
		if node, ok := m.nodes[targetPath[i]]; ok {
			for _, a := range node.OnEnter {
				a.Func(ctx)
			}
		}
	}

	region.ActiveStateID = targetID
	region.ActivePath = append(region.ActivePath[:0], targetPath...)
}

// Goto forces a region directly to targetID, running the same LCA
// exit/enter chain a matched transition would, without requiring a
// declared Transition edge. Used where the target depends on runtime
// state a static transition table cannot encode (e.g. "resume to
// whichever mode was active before this dialog opened").
func (m *Machine[T]) Goto(region string, targetID StateID, ctx T) error {
	r, ok := m.regions[region]
	if !ok {
		return fmt.Errorf("fsm: unknown region %q", region)
	}
	if _, ok := m.nodes[targetID]; !ok {
		return fmt.Errorf("fsm: goto: unknown state %d", targetID)
	}
	m.transitionRegion(ctx, r, targetID)
	return nil
}

// RegionState returns the active state's name for a region, or "" if
// the region does not exist.
func (m *Machine[T]) RegionState(name string) string {
	if region, ok := m.regions[name]; ok {
		if node, ok := m.nodes[region.ActiveStateID]; ok {
			return node.Name
		}
	}
	return ""
}

// RegionStateID returns the active StateID for a region, or StateNone.
func (m *Machine[T]) RegionStateID(name string) StateID {
	if region, ok := m.regions[name]; ok {
		return region.ActiveStateID
	}
	return StateNone
}

// PauseRegion suspends a region's evaluation (both Update and
// HandleEvent skip it while paused).
func (m *Machine[T]) PauseRegion(name string) {
	if r, ok := m.regions[name]; ok {
		r.Paused = true
	}
}

// ResumeRegion resumes a previously paused region.
func (m *Machine[T]) ResumeRegion(name string) {
	if r, ok := m.regions[name]; ok {
		r.Paused = false
	}
}

package timeline

import (
	"testing"

	"github.com/arenic/timelinecore/internal/clock"
	"github.com/arenic/timelinecore/internal/core"
)

const testPeriod = clock.TimeStamp(120_000)

func ts(ms int64) clock.TimeStamp { return clock.TimeStamp(ms) }

func TestBeginAppendCommit(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)

	if _, err := s.BeginDraft(c); err != nil {
		t.Fatalf("BeginDraft: %v", err)
	}
	if err := s.Append(c, NewMovement(ts(0), core.GridPosition{X: 5, Y: 5})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(c, NewAbility(ts(2000), core.AbilityId(7), nil)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	pub, err := s.Commit(c)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if pub.Len() != 2 {
		t.Fatalf("published len = %d, want 2", pub.Len())
	}
	if s.HasDraft(c) {
		t.Fatalf("draft should be discarded after commit")
	}
}

func TestCommitThenQueryRoundTrip(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	events := []Event{
		NewMovement(ts(0), core.GridPosition{}),
		NewMovement(ts(1000), core.GridPosition{X: 5, Y: 5}),
		NewAbility(ts(2000), core.AbilityId(7), nil),
		NewMovement(ts(3000), core.GridPosition{X: 6, Y: 5}),
	}
	for _, ev := range events {
		if err := s.Append(c, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := s.Commit(c); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for _, ev := range events {
		got := s.Query(c, ev.Timestamp-1, ev.Timestamp, testPeriod)
		found := false
		for _, g := range got {
			if g.Timestamp == ev.Timestamp && g.Kind == ev.Kind {
				found = true
			}
		}
		if !found {
			t.Fatalf("event at %s not found in query(%s-1, %s]", ev.Timestamp, ev.Timestamp, ev.Timestamp)
		}
	}
}

func TestClearIsEmptyAndPreservesExistingPublish(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(0), core.GridPosition{}))
	pub1, _ := s.Commit(c)

	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(0), core.GridPosition{X: 9}))
	s.Clear(c)

	if s.HasDraft(c) {
		t.Fatalf("draft should be gone after Clear")
	}
	pub2 := s.Publish(c)
	if pub2 != pub1 {
		t.Fatalf("Clear must not touch the existing published timeline")
	}
}

func TestZeroDurationQueryIsEmpty(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(0), core.GridPosition{}))
	s.Append(c, NewAbility(ts(50_000), core.AbilityId(1), nil))
	s.Commit(c)

	got := s.Query(c, ts(50_000), ts(50_000), testPeriod)
	if len(got) != 0 {
		t.Fatalf("query(t,t) returned %d events, want 0", len(got))
	}
}

func TestWrapBoundaryQuery(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(0), core.GridPosition{}))
	s.Append(c, NewAbility(ts(50), core.AbilityId(4), nil))
	s.Append(c, NewAbility(ts(119_950), core.AbilityId(3), nil))
	s.Commit(c)

	// (119900, T) holds ability 3; [0, 100] holds the Movement at 0 and
	// ability 4 at 50.
	got := s.Query(c, ts(119_900), ts(100), testPeriod)
	if len(got) != 3 {
		t.Fatalf("wrap query returned %d events, want 3: %+v", len(got), got)
	}
	if got[0].AbilityID != 3 || got[1].Kind != Movement || got[2].AbilityID != 4 || got[2].Timestamp != 50 {
		t.Fatalf("wrap query order wrong: %+v", got)
	}
}

func TestDenseAbilitiesPreserveInsertionOrder(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewAbility(ts(1000), core.AbilityId(1), nil))
	s.Append(c, NewAbility(ts(1000), core.AbilityId(2), nil))
	s.Append(c, NewAbility(ts(1000), core.AbilityId(3), nil))
	s.Commit(c)

	got := s.Query(c, ts(0), ts(1000), testPeriod)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	for i, want := range []core.AbilityId{1, 2, 3} {
		if got[i].AbilityID != want {
			t.Fatalf("event %d: ability = %d, want %d (insertion order violated)", i, got[i].AbilityID, want)
		}
	}
}

func TestMonotonicAppendClampsOutOfOrderInRelease(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(1000), core.GridPosition{}))
	if err := s.Append(c, NewMovement(ts(500), core.GridPosition{X: 1})); err != nil {
		t.Fatalf("release mode should clamp, not error: %v", err)
	}
	if got := s.DraftLen(c); got != 2 {
		t.Fatalf("draft len = %d, want 2", got)
	}
}

func TestMonotonicAppendFailsInDebug(t *testing.T) {
	s := NewStore()
	s.Debug = true
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(1000), core.GridPosition{}))
	if err := s.Append(c, NewMovement(ts(500), core.GridPosition{X: 1})); err == nil {
		t.Fatalf("expected error for out-of-order append in debug mode")
	}
}

func TestMovementAtAndNextMovementAfter(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(0), core.GridPosition{X: 1, Y: 1}))
	s.Append(c, NewMovement(ts(1000), core.GridPosition{X: 5, Y: 5}))
	s.Append(c, NewMovement(ts(3000), core.GridPosition{X: 6, Y: 5}))
	pub, _ := s.Commit(c)

	prev, ok := pub.MovementAt(ts(2000))
	if !ok || prev.Position.X != 5 {
		t.Fatalf("MovementAt(2000) = %+v, ok=%v", prev, ok)
	}
	next, ok := pub.NextMovementAfter(ts(2000))
	if !ok || next.Position.X != 6 {
		t.Fatalf("NextMovementAfter(2000) = %+v, ok=%v", next, ok)
	}

	if _, ok := pub.NextMovementAfter(ts(3000)); ok {
		t.Fatalf("no movement should exist after the last one")
	}
	first, ok := pub.FirstMovement()
	if !ok || first.Position.X != 1 {
		t.Fatalf("FirstMovement = %+v, ok=%v", first, ok)
	}
}

func TestDespawnDropsPublishAndDraft(t *testing.T) {
	s := NewStore()
	const c = core.CharacterId(1)
	s.BeginDraft(c)
	s.Append(c, NewMovement(ts(0), core.GridPosition{}))
	s.Commit(c)

	s.Despawn(c)
	if s.Publish(c) != nil {
		t.Fatalf("expected nil publish after despawn")
	}
}

func TestEmptyPublishedTimelineIsSafe(t *testing.T) {
	var p *Publish
	if p.Query(ts(0), ts(100), testPeriod) != nil {
		t.Fatalf("nil publish should yield nil query result")
	}
	if _, ok := p.MovementAt(ts(0)); ok {
		t.Fatalf("nil publish should yield no movement")
	}
}

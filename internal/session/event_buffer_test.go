package session

import "testing"

func TestEventBufferOrderAndReplay(t *testing.T) {
	buf := NewEventBuffer("b1", 10)
	ev1 := buf.Append("battle_start", map[string]any{"n": 1})
	ev2 := buf.Append("turn_result", map[string]any{"n": 2})
	ev3 := buf.Append("battle_end", map[string]any{"n": 3})

	if ev1.EventID != 1 || ev2.EventID != 2 || ev3.EventID != 3 {
		t.Fatalf("unexpected event ids: %d %d %d", ev1.EventID, ev2.EventID, ev3.EventID)
	}
	if ev1.BattleID != "b1" {
		t.Fatalf("battle id = %q, want b1", ev1.BattleID)
	}

	replay := buf.ReplayAfter(1)
	if len(replay) != 2 || replay[0].EventID != 2 || replay[1].EventID != 3 {
		t.Fatalf("unexpected replay: %+v", replay)
	}
}

func TestEventBufferTrimsToMax(t *testing.T) {
	buf := NewEventBuffer("b1", 2)
	for i := 0; i < 5; i++ {
		buf.Append("turn_result", i)
	}
	all := buf.ReplayAfter(0)
	if len(all) != 2 || all[0].EventID != 4 || all[1].EventID != 5 {
		t.Fatalf("unexpected retained events: %+v", all)
	}
}

func TestEventBufferWatchersAndClose(t *testing.T) {
	buf := NewEventBuffer("b1", 10)
	ch := buf.Subscribe()
	buf.Append("turn_result", nil)
	ev, ok := <-ch
	if !ok || ev.Event != "turn_result" {
		t.Fatalf("watcher got %+v, %v", ev, ok)
	}
	buf.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected watcher channel closed")
	}
	if got := buf.Append("late", nil); got.EventID != 0 {
		t.Fatalf("append after close should be dropped, got %+v", got)
	}
	late := buf.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscribe after close should return a closed channel")
	}
	if len(buf.ReplayAfter(0)) != 1 {
		t.Fatal("retained events should survive close")
	}
}

// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence_test

import (
	"strconv"
	"testing"

	"mellium.im/imstate/presence"
)

func TestShowOrdering(t *testing.T) {
	ordered := [...]presence.Show{
		presence.Unavailable,
		presence.Error,
		presence.ExtendedAway,
		presence.DoNotDisturb,
		presence.Away,
		presence.Available,
		presence.Chat,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1] >= ordered[i] {
			t.Errorf("expected %v < %v", ordered[i-1], ordered[i])
		}
	}
}

var changedTests = [...]struct {
	old, new presence.State
	changed  bool
}{
	0: {changed: false},
	1: {
		old:     presence.State{Show: presence.Away},
		new:     presence.State{Show: presence.Away},
		changed: false,
	},
	2: {
		old:     presence.State{Show: presence.Away},
		new:     presence.State{Show: presence.Chat},
		changed: true,
	},
	3: {
		old:     presence.State{Show: presence.Away, Status: "brb"},
		new:     presence.State{Show: presence.Away},
		changed: true,
	},
	4: {
		old:     presence.State{Show: presence.Away},
		new:     presence.State{Show: presence.Away, Status: "brb"},
		changed: true,
	},
	5: {
		old:     presence.State{Show: presence.Away, Status: "brb"},
		new:     presence.State{Show: presence.Away, Status: "lunch"},
		changed: true,
	},
	6: {
		old:     presence.State{Show: presence.Away, Status: "brb", Priority: 1},
		new:     presence.State{Show: presence.Away, Status: "brb", Priority: 2},
		changed: true,
	},
	7: {
		old:     presence.State{Show: presence.Away, Status: "brb", Priority: 5},
		new:     presence.State{Show: presence.Away, Status: "brb", Priority: 5},
		changed: false,
	},
}

func TestChanged(t *testing.T) {
	for i, tc := range changedTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if got := presence.Changed(tc.old, tc.new); got != tc.changed {
				t.Errorf("wrong result: want=%t, got=%t", tc.changed, got)
			}
		})
	}
}

var priorityTests = [...]struct {
	in   string
	prio int8
	ok   bool
}{
	0: {in: "0", prio: 0, ok: true},
	1: {in: "5", prio: 5, ok: true},
	2: {in: "-1", prio: -1, ok: true},
	3: {in: "127", prio: 127, ok: true},
	4: {in: "-128", prio: -128, ok: true},
	5: {in: "128", ok: false},
	6: {in: "-129", ok: false},
	7: {in: "house", ok: false},
	8: {in: "", ok: false},
}

func TestParsePriority(t *testing.T) {
	for i, tc := range priorityTests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			prio, ok := presence.ParsePriority(tc.in)
			if ok != tc.ok {
				t.Fatalf("wrong ok: want=%t, got=%t", tc.ok, ok)
			}
			if ok && prio != tc.prio {
				t.Errorf("wrong priority: want=%d, got=%d", tc.prio, prio)
			}
		})
	}
}

func TestPayloadKeepsOldPriority(t *testing.T) {
	old := presence.State{Show: presence.Away, Priority: 3}
	got := presence.Payload{Show: "dnd", Priority: "9000"}.State(old)
	if got.Priority != 3 {
		t.Errorf("out of range priority was not rejected: got=%d", got.Priority)
	}
	if got.Show != presence.DoNotDisturb {
		t.Errorf("wrong show: got=%v", got.Show)
	}
}

// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package events

type eventOS interface{}

type eventBasic struct {
	name string
}

func (e eventBasic) String() string {
	return e.name
}

// Events are still named on other systems so configuration can be parsed,
// but a counter can never be opened on them.
var (
	EventInstructions    Event = eventBasic{"instructions"}
	EventCPUCycles       Event = eventBasic{"cpu-cycles"}
	EventCacheReferences Event = eventBasic{"cache-references"}
	EventCacheMisses     Event = eventBasic{"cache-misses"}
	EventBranches        Event = eventBasic{"branches"}
	EventBranchMisses    Event = eventBasic{"branch-misses"}

	EventTaskClock       Event = eventBasic{"task-clock"}
	EventContextSwitches Event = eventBasic{"context-switches"}
	EventPageFaults      Event = eventBasic{"page-faults"}
)

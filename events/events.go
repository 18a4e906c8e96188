// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package events names the performance events a [perf.Counter] can count.
package events

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// An Event represents a performance event that perf can count.
type Event interface {
	// String returns the string representation of this event, preferably as the
	// name used by "perf stat -e".
	String() string

	eventOS
}

// ErrUnknownEvent is returned by [ParseEvent] for names that do not resolve to
// a known event.
var ErrUnknownEvent = errors.New("unknown event")

// builtins maps every accepted spelling to its event. Some events have more
// than one name, matching what perf accepts.
var builtins = sync.OnceValue(func() map[string]Event {
	m := make(map[string]Event)
	add := func(ev Event, aliases ...string) {
		m[ev.String()] = ev
		for _, a := range aliases {
			m[a] = ev
		}
	}
	add(EventInstructions, "instructions:u")
	add(EventCPUCycles, "cycles")
	add(EventCacheReferences)
	add(EventCacheMisses)
	add(EventBranches, "branch-instructions")
	add(EventBranchMisses)
	add(EventTaskClock)
	add(EventContextSwitches, "cs")
	add(EventPageFaults, "faults")
	return m
})

// Unit returns the unit of ev's counts: nanoseconds for the time-based
// software events and the event name itself otherwise.
func Unit(ev Event) string {
	if ev == EventTaskClock {
		return "ns"
	}
	return ev.String()
}

// ParseEvent resolves a symbolic event name such as "instructions" or
// "cycles". Matching is case-insensitive.
func ParseEvent(name string) (Event, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ev, ok := builtins()[key]; ok {
		return ev, nil
	}
	return nil, errors.Wrapf(ErrUnknownEvent, "%q", name)
}

// Names returns the canonical names of all known events, sorted.
func Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, ev := range builtins() {
		if !seen[ev.String()] {
			seen[ev.String()] = true
			names = append(names, ev.String())
		}
	}
	sort.Strings(names)
	return names
}

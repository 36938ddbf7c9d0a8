package statemachine

import (
	"fmt"
	"strings"
)

// Actor names who may perform a transition
type Actor string

const (
	ActorAdmin    Actor = "admin"
	ActorSupplier Actor = "supplier"
	ActorCustomer Actor = "customer"
)

// Transition defines a valid state change and who can perform it
type Transition[S ~string] struct {
	From  S     `json:"from"`
	To    S     `json:"to"`
	Actor Actor `json:"actor"`
}

type transitionKey[S ~string] struct {
	From  S
	To    S
	Actor Actor
}

// Machine is an immutable transition table with O(1) validation
type Machine[S ~string] struct {
	name        string
	transitions []Transition[S]
	lookup      map[transitionKey[S]]bool
}

// New builds a machine from its authoritative transition list
func New[S ~string](name string, transitions ...Transition[S]) *Machine[S] {
	m := &Machine[S]{
		name:        name,
		transitions: transitions,
		lookup:      make(map[transitionKey[S]]bool, len(transitions)),
	}
	for _, t := range transitions {
		m.lookup[transitionKey[S]{t.From, t.To, t.Actor}] = true
	}
	return m
}

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine[S]) ValidTransitionsFrom(status S) []S {
	var nexts []S
	seen := map[S]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func (m *Machine[S]) CanTransition(from, to S, actor Actor) error {
	if m.lookup[transitionKey[S]{from, to, actor}] {
		return nil
	}
	return fmt.Errorf(
		"invalid %s transition: %s → %s is not allowed for %s; valid transitions from %s are: %s",
		m.name, from, to, actor, from, m.describeValidFrom(from),
	)
}

func (m *Machine[S]) describeValidFrom(status S) string {
	nexts := m.ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Transitions returns the full table for documentation
func (m *Machine[S]) Transitions() []Transition[S] {
	out := make([]Transition[S], len(m.transitions))
	copy(out, m.transitions)
	return out
}

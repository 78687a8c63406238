package fsm

import (
	"context"
	"fmt"
	"sync"
)

// State represents a state identifier.
type State string

// Event represents an event identifier.
type Event string

// Action is a function executed during transitions. A returned error aborts
// the transition.
type Action func(ctx context.Context, transition TransitionContext) error

// Guard decides if a transition can occur.
type Guard func(ctx context.Context, transition TransitionContext) bool

// TransitionContext holds context about the current transition.
type TransitionContext struct {
	Machine *StateMachine
	Event   Event
	From    State
	To      State
	Data    any
}

// StateMachine implements a finite state machine. Fire is synchronous: the
// caller observes the new state (or the failure) directly, which suits
// handlers that already run one at a time.
type StateMachine struct {
	id           string
	currentState State
	states       map[State]*stateConfig
	mu           sync.Mutex

	onTransition []func(TransitionContext)
}

type stateConfig struct {
	state       State
	onEntry     []Action
	onExit      []Action
	transitions map[Event]*transition
}

type transition struct {
	trigger Event
	to      State
	guard   Guard
	actions []Action
}

// New creates a StateMachine with an initial state.
func New(id string, initialState State) *StateMachine {
	return &StateMachine{
		id:           id,
		currentState: initialState,
		states:       make(map[State]*stateConfig),
	}
}

// ID returns the machine identifier.
func (sm *StateMachine) ID() string { return sm.id }

// CurrentState returns the current state.
func (sm *StateMachine) CurrentState() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentState
}

// Configure returns a builder for the given state, creating its
// configuration on first use.
func (sm *StateMachine) Configure(state State) *StateConfigBuilder {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, ok := sm.states[state]
	if !ok {
		config = &stateConfig{
			state:       state,
			transitions: make(map[Event]*transition),
		}
		sm.states[state] = config
	}
	return &StateConfigBuilder{config: config}
}

// CanFire reports whether the event has a transition out of the current
// state (guards are not evaluated).
func (sm *StateMachine) CanFire(event Event) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	config, ok := sm.states[sm.currentState]
	if !ok {
		return false
	}
	_, ok = config.transitions[event]
	return ok
}

// Fire triggers an event and returns the resulting state. The state is
// unchanged when an error is returned, except when an entry action of the
// new state fails (the transition has already happened at that point).
func (sm *StateMachine) Fire(ctx context.Context, event Event, data any) (State, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	currentState := sm.currentState
	config, ok := sm.states[currentState]
	if !ok {
		return currentState, fmt.Errorf("no configuration for state %s", currentState)
	}

	tr, ok := config.transitions[event]
	if !ok {
		return currentState, fmt.Errorf("no transition defined for event %s in state %s", event, currentState)
	}

	tCtx := TransitionContext{
		Machine: sm,
		Event:   event,
		From:    currentState,
		To:      tr.to,
		Data:    data,
	}

	if tr.guard != nil && !tr.guard(ctx, tCtx) {
		return currentState, fmt.Errorf("guard failed for transition %s -> %s on event %s", currentState, tr.to, event)
	}

	for _, action := range config.onExit {
		if err := action(ctx, tCtx); err != nil {
			return currentState, fmt.Errorf("exit action failed: %w", err)
		}
	}

	for _, action := range tr.actions {
		if err := action(ctx, tCtx); err != nil {
			return currentState, fmt.Errorf("transition action failed: %w", err)
		}
	}

	sm.currentState = tr.to

	if next, ok := sm.states[tr.to]; ok {
		for _, action := range next.onEntry {
			if err := action(ctx, tCtx); err != nil {
				return sm.currentState, fmt.Errorf("entry action failed: %w", err)
			}
		}
	}

	for _, listener := range sm.onTransition {
		listener(tCtx)
	}

	return sm.currentState, nil
}

// OnTransition registers a global transition listener.
func (sm *StateMachine) OnTransition(listener func(TransitionContext)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, listener)
}

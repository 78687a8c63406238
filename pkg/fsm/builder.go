package fsm

// StateConfigBuilder provides a fluent API for configuring states.
type StateConfigBuilder struct {
	config *stateConfig
}

// Permit defines an allowed transition from the configured state.
func (b *StateConfigBuilder) Permit(event Event, nextState State) *StateConfigBuilder {
	return b.PermitIf(event, nextState, nil)
}

// PermitIf defines an allowed transition gated by a guard.
func (b *StateConfigBuilder) PermitIf(event Event, nextState State, guard Guard) *StateConfigBuilder {
	b.config.transitions[event] = &transition{
		trigger: event,
		to:      nextState,
		guard:   guard,
	}
	return b
}

// OnEntry registers an action executed when the state is entered.
func (b *StateConfigBuilder) OnEntry(action Action) *StateConfigBuilder {
	b.config.onEntry = append(b.config.onEntry, action)
	return b
}

// OnExit registers an action executed when the state is exited.
func (b *StateConfigBuilder) OnExit(action Action) *StateConfigBuilder {
	b.config.onExit = append(b.config.onExit, action)
	return b
}

// OnTransitionDo appends an action to an already-permitted transition.
func (b *StateConfigBuilder) OnTransitionDo(event Event, action Action) *StateConfigBuilder {
	if tr, ok := b.config.transitions[event]; ok {
		tr.actions = append(tr.actions, action)
	}
	return b
}

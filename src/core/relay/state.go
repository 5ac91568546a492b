package relay

// State 中继会话状态
type State int

const (
	StateAwaitingSetup State = iota
	StateActive
	StateEscalating
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingSetup:
		return "AWAITING_SETUP"
	case StateActive:
		return "ACTIVE"
	case StateEscalating:
		return "ESCALATING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Effect 事件驱动的副作用
type Effect int

const (
	EffectNone Effect = iota
	EffectReady
	EffectRunTurn
	EffectRejectPrompt
	EffectInterrupted
	EffectTransportError
	EffectEnded
	EffectIgnored
)

// Transition 根据当前状态和入站事件计算下一状态与副作用，不做任何 I/O
func Transition(state State, ev InboundEvent) (State, Effect) {
	if state == StateClosed {
		if ev.Type == EventPrompt {
			return StateClosed, EffectRejectPrompt
		}
		return StateClosed, EffectIgnored
	}

	switch ev.Type {
	case EventSetup:
		if state == StateAwaitingSetup {
			return StateActive, EffectReady
		}
		return state, EffectIgnored
	case EventPrompt:
		switch state {
		case StateActive:
			return StateActive, EffectRunTurn
		case StateAwaitingSetup:
			// setup 丢失或乱序时按已就绪处理
			return StateActive, EffectRunTurn
		default:
			return state, EffectRejectPrompt
		}
	case EventInterrupt:
		return state, EffectInterrupted
	case EventError:
		return state, EffectTransportError
	case EventEnd:
		return StateClosed, EffectEnded
	default:
		return state, EffectIgnored
	}
}

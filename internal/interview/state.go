// Package interview runs one mock interview session: it sequences questions
// and answers, calls the agent for every accepted answer and records the
// exchanges in an append-only ledger.
package interview

// State is what the session loop is doing right now.
type State string

const (
	StateLoading   State = "loading"
	StateSpeaking  State = "speaking"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateIdle      State = "idle"
	StateFinished  State = "finished"
)

var validTransitions = map[State][]State{
	StateLoading: {
		StateSpeaking, // voice: render the opener
		StateIdle,     // text: wait for the first answer
		StateFinished,
	},
	StateSpeaking: {
		StateListening,
		StateFinished,
	},
	StateListening: {
		StateThinking,
		StateFinished,
	},
	StateIdle: {
		StateThinking,
		StateFinished,
	},
	StateThinking: {
		StateSpeaking,  // voice: next question
		StateIdle,      // text: next question, or failed call
		StateListening, // voice: failed call
		StateFinished,
	},
	StateFinished: {},
}

// IsValidTransition reports whether the session may move from one state to another.
func IsValidTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidNextStates returns the states reachable from the given state.
func ValidNextStates(from State) []State {
	return validTransitions[from]
}

// AllStates returns every session state.
func AllStates() []State {
	return []State{StateLoading, StateSpeaking, StateListening, StateThinking, StateIdle, StateFinished}
}

// IsTerminal reports whether no transition leaves the state.
func (s State) IsTerminal() bool {
	return s == StateFinished
}

// acceptsAnswers reports whether the Submission gate may admit an answer in this state.
func (s State) acceptsAnswers() bool {
	return s == StateListening || s == StateIdle
}

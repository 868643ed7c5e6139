package flow

// State is the caller-owned wizard state: the screen on display and the
// answers that drive branching. It is a plain value; Apply returns a new one.
type State struct {
	Screen  Screen  `json:"screen" yaml:"screen"`
	Context Context `json:"context" yaml:"context"`
}

// NewState returns the state of a freshly started wizard.
func NewState() State {
	return State{Screen: ScreenIntro}
}

// Apply records the option carried by an Advance on a branching screen into
// the context and moves to the next screen. The receiver is not modified.
func (s State) Apply(action Action) State {
	next := s
	if action.Type == ActionAdvance {
		next.Context = record(s.Screen, action.Option, s.Context)
	}
	next.Screen = Next(s.Screen, action, next.Context)
	return next
}

func record(screen Screen, option string, ctx Context) Context {
	switch screen {
	case ScreenDelegationOptions:
		if d := DelegationType(option); d.Valid() {
			ctx.Delegation = d
		}
	case ScreenTLS:
		if t := TLSType(option); t.Valid() {
			ctx.TLS = t
		}
	}
	return ctx
}

// Walk applies actions in order starting from s and returns every screen
// visited, beginning with s.Screen.
func Walk(s State, actions ...Action) []Screen {
	visited := make([]Screen, 0, len(actions)+1)
	visited = append(visited, s.Screen)
	for _, a := range actions {
		s = s.Apply(a)
		visited = append(visited, s.Screen)
	}
	return visited
}

// Final reports whether s is the last screen of the wizard.
func (s State) Final() bool {
	return s.Screen == ScreenDatabase
}

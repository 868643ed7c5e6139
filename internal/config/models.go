package config

import (
	"sort"
	"time"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/flow"
)

// CurrentVersion is the registry file format version.
const CurrentVersion = 1

// DefaultSessionName is used when the operator does not name a session.
const DefaultSessionName = "default"

// Registry represents the entire user configuration file.
// It stores saved wizard sessions and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Sessions    map[string]*Session `yaml:"sessions,omitempty"` // Keyed by session name
	Preferences *Preferences        `yaml:"preferences,omitempty"`

	path string
}

// Session is a resumable wizard run: where the operator is and what they
// have answered so far.
type Session struct {
	Screen    flow.Screen            `yaml:"screen"`
	Context   flow.Context           `yaml:"context"`
	Answers   *baseconfig.BaseConfig `yaml:"answers,omitempty"`
	UpdatedAt time.Time              `yaml:"updated_at,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultSession string `yaml:"default_session,omitempty"` // Session resumed when none is named
	OutputDir      string `yaml:"output_dir,omitempty"`      // Where rendered files are written
	ServerPort     int    `yaml:"server_port,omitempty"`     // Port for the configuration server
}

// DefaultServerPort is the configuration server port used when none is set.
const DefaultServerPort = 8888

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Sessions:    make(map[string]*Session),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DefaultSession: DefaultSessionName,
		OutputDir:      ".",
		ServerPort:     DefaultServerPort,
	}
}

// NewSession returns a session positioned on the first screen with default
// answers.
func NewSession() *Session {
	return &Session{
		Screen:  flow.ScreenIntro,
		Answers: baseconfig.New(),
	}
}

// State returns the wizard state stored in the session.
func (s *Session) State() flow.State {
	screen := s.Screen
	if !screen.Valid() {
		screen = flow.ScreenIntro
	}
	return flow.State{Screen: screen, Context: s.Context}
}

// SetState records a new wizard position.
func (s *Session) SetState(st flow.State) {
	s.Screen = st.Screen
	s.Context = st.Context
	s.UpdatedAt = time.Now()
}

// GetSession retrieves a session by name.
// Returns nil if the session doesn't exist in the registry.
func (r *Registry) GetSession(name string) *Session {
	return r.Sessions[name]
}

// EnsureSession returns the named session, creating a fresh one if needed.
func (r *Registry) EnsureSession(name string) *Session {
	if r.Sessions == nil {
		r.Sessions = make(map[string]*Session)
	}
	if s, ok := r.Sessions[name]; ok {
		if s.Answers == nil {
			s.Answers = baseconfig.New()
		}
		return s
	}
	s := NewSession()
	r.Sessions[name] = s
	return s
}

// SaveSession stores a session under name, stamping its update time.
func (r *Registry) SaveSession(name string, s *Session) {
	if r.Sessions == nil {
		r.Sessions = make(map[string]*Session)
	}
	s.UpdatedAt = time.Now()
	r.Sessions[name] = s
}

// DeleteSession removes a session. It reports whether the session existed.
func (r *Registry) DeleteSession(name string) bool {
	if _, ok := r.Sessions[name]; !ok {
		return false
	}
	delete(r.Sessions, name)
	return true
}

// SessionNames returns the stored session names in sorted order.
func (r *Registry) SessionNames() []string {
	names := make([]string, 0, len(r.Sessions))
	for name := range r.Sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the file the registry was loaded from, if any.
func (r *Registry) Path() string {
	return r.path
}

package flow

import "fmt"

// ActionType is the kind of navigation requested by the user.
type ActionType string

const (
	ActionCheckBaseConfig ActionType = "check-base-config"
	ActionAdvance         ActionType = "advance"
	ActionBack            ActionType = "back"
)

// DelegationType selects how server-name resolution is handed off.
type DelegationType string

const (
	DelegationDNS       DelegationType = "dns"
	DelegationWellKnown DelegationType = "well_known"
	DelegationLocal     DelegationType = "local"
)

// TLSType selects how transport encryption is terminated.
type TLSType string

const (
	TLSACME         TLSType = "acme"
	TLSManual       TLSType = "tls"
	TLSNone         TLSType = "none"
	TLSReverseProxy TLSType = "reverse_proxy"
)

// Action is a navigation request. Option is only meaningful for ActionAdvance
// on screens that branch on a choice, and then holds a DelegationType or
// TLSType value.
type Action struct {
	Type   ActionType `json:"type" yaml:"type"`
	Option string     `json:"option,omitempty" yaml:"option,omitempty"`
}

// CheckBaseConfig returns the action emitted once the base config is loaded.
func CheckBaseConfig() Action {
	return Action{Type: ActionCheckBaseConfig}
}

// Advance returns a plain advance action with no carried option.
func Advance() Action {
	return Action{Type: ActionAdvance}
}

// AdvanceDelegation returns an advance action carrying a delegation choice.
func AdvanceDelegation(d DelegationType) Action {
	return Action{Type: ActionAdvance, Option: string(d)}
}

// AdvanceTLS returns an advance action carrying a TLS choice.
func AdvanceTLS(t TLSType) Action {
	return Action{Type: ActionAdvance, Option: string(t)}
}

// Back returns a back action.
func Back() Action {
	return Action{Type: ActionBack}
}

// Valid reports whether the action type is known. Options are not checked
// here since their meaning depends on the current screen.
func (a Action) Valid() bool {
	switch a.Type {
	case ActionCheckBaseConfig, ActionAdvance, ActionBack:
		return true
	}
	return false
}

func (a Action) String() string {
	if a.Option == "" {
		return string(a.Type)
	}
	return fmt.Sprintf("%s(%s)", a.Type, a.Option)
}

// ParseAction builds an Action from wire values and rejects unknown types.
func ParseAction(actionType, option string) (Action, error) {
	a := Action{Type: ActionType(actionType), Option: option}
	if !a.Valid() {
		return Action{}, fmt.Errorf("unknown action type %q", actionType)
	}
	return a, nil
}

// DelegationOptions lists the delegation choices in display order.
func DelegationOptions() []DelegationType {
	return []DelegationType{DelegationLocal, DelegationWellKnown, DelegationDNS}
}

// TLSOptions lists the TLS choices in display order.
func TLSOptions() []TLSType {
	return []TLSType{TLSACME, TLSManual, TLSReverseProxy, TLSNone}
}

// Valid reports whether d is a known delegation type.
func (d DelegationType) Valid() bool {
	switch d {
	case DelegationDNS, DelegationWellKnown, DelegationLocal:
		return true
	}
	return false
}

// Label returns the text shown for d in the wizard.
func (d DelegationType) Label() string {
	switch d {
	case DelegationDNS:
		return "DNS SRV record"
	case DelegationWellKnown:
		return ".well-known file"
	case DelegationLocal:
		return "No delegation (serve on the server name)"
	default:
		return string(d)
	}
}

// ParseDelegationType converts a wire value into a DelegationType.
func ParseDelegationType(value string) (DelegationType, error) {
	d := DelegationType(value)
	if !d.Valid() {
		return "", fmt.Errorf("unknown delegation type %q", value)
	}
	return d, nil
}

// Valid reports whether t is a known TLS type.
func (t TLSType) Valid() bool {
	switch t {
	case TLSACME, TLSManual, TLSNone, TLSReverseProxy:
		return true
	}
	return false
}

// Label returns the text shown for t in the wizard.
func (t TLSType) Label() string {
	switch t {
	case TLSACME:
		return "Automatic certificates (ACME)"
	case TLSManual:
		return "Provide certificate files"
	case TLSNone:
		return "No TLS"
	case TLSReverseProxy:
		return "Terminate TLS at a reverse proxy"
	default:
		return string(t)
	}
}

// ParseTLSType converts a wire value into a TLSType.
func ParseTLSType(value string) (TLSType, error) {
	t := TLSType(value)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tls type %q", value)
	}
	return t, nil
}

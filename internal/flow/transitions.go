package flow

// Context holds the previously entered answers that affect routing.
type Context struct {
	TLS        TLSType        `json:"tls,omitempty" yaml:"tls,omitempty"`
	Delegation DelegationType `json:"delegation_type,omitempty" yaml:"delegation_type,omitempty"`
}

// backTargets are the only screens with a defined backward transition.
var backTargets = map[Screen]Screen{
	ScreenStatsReport:       ScreenServerName,
	ScreenKeyExport:         ScreenStatsReport,
	ScreenDelegationOptions: ScreenKeyExport,
	ScreenWellKnown:         ScreenDelegationOptions,
	ScreenDNS:               ScreenWellKnown,
}

// Next returns the screen to display after applying action on current.
//
// Next is total: every input yields a screen. Unknown action types and Back
// from a screen without a defined predecessor return current unchanged.
// Advance from a screen that has no successor returns ScreenIntro.
func Next(current Screen, action Action, ctx Context) Screen {
	switch action.Type {
	case ActionCheckBaseConfig:
		return ScreenIntro
	case ActionAdvance:
		return advance(current, action.Option, ctx)
	case ActionBack:
		if prev, ok := backTargets[current]; ok {
			return prev
		}
		return current
	default:
		return current
	}
}

func advance(current Screen, option string, ctx Context) Screen {
	switch current {
	case ScreenIntro:
		return ScreenServerName
	case ScreenServerName:
		return ScreenStatsReport
	case ScreenStatsReport:
		return ScreenKeyExport
	case ScreenKeyExport:
		return ScreenDelegationOptions

	case ScreenDelegationOptions:
		switch DelegationType(option) {
		case DelegationDNS, DelegationWellKnown:
			return ScreenDelegationServerName
		case DelegationLocal:
			return ScreenTLS
		default:
			// No choice made yet.
			return current
		}

	case ScreenDelegationServerName:
		return ScreenDelegationPortSelection
	case ScreenDelegationPortSelection:
		return ScreenTLS

	case ScreenTLS:
		switch TLSType(option) {
		case TLSACME, TLSNone:
			return ScreenPortSelection
		case TLSManual:
			return ScreenTLSCertPath
		case TLSReverseProxy:
			return ScreenReverseProxy
		default:
			return current
		}

	case ScreenReverseProxy, ScreenTLSCertPath:
		return ScreenPortSelection

	case ScreenPortSelection:
		if ctx.TLS == TLSReverseProxy {
			return ScreenReverseProxyTemplate
		}
		if ctx.Delegation != DelegationLocal {
			return ScreenDelegationTemplate
		}
		return ScreenDatabase

	case ScreenReverseProxyTemplate:
		if ctx.Delegation != DelegationLocal {
			return ScreenDelegationTemplate
		}
		return ScreenDatabase

	case ScreenDelegationTemplate:
		return ScreenDatabase

	default:
		// well-known, dns, database and anything unknown restart the wizard.
		return ScreenIntro
	}
}

// HasBack reports whether Back from s leads to a different screen.
func HasBack(s Screen) bool {
	_, ok := backTargets[s]
	return ok
}

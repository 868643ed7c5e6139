package flow

import "fmt"

// Screen identifies one page of the setup wizard.
type Screen string

const (
	ScreenIntro                   Screen = "intro"
	ScreenServerName              Screen = "server-name"
	ScreenStatsReport             Screen = "stats-report"
	ScreenKeyExport               Screen = "key-export"
	ScreenDelegationOptions       Screen = "delegation-options"
	ScreenDelegationServerName    Screen = "delegation-server-name"
	ScreenWellKnown               Screen = "well-known"
	ScreenDNS                     Screen = "dns"
	ScreenTLS                     Screen = "tls"
	ScreenTLSCertPath             Screen = "tls-certpath"
	ScreenReverseProxy            Screen = "reverse-proxy"
	ScreenReverseProxyTemplate    Screen = "reverse-proxy-template"
	ScreenDelegationPortSelection Screen = "delegation-port-selection"
	ScreenDelegationTemplate      Screen = "delegation-template"
	ScreenPortSelection           Screen = "port-selection"
	ScreenDatabase                Screen = "database"
)

// allScreens lists every screen in wizard order.
var allScreens = []Screen{
	ScreenIntro,
	ScreenServerName,
	ScreenStatsReport,
	ScreenKeyExport,
	ScreenDelegationOptions,
	ScreenDelegationServerName,
	ScreenDelegationPortSelection,
	ScreenWellKnown,
	ScreenDNS,
	ScreenTLS,
	ScreenTLSCertPath,
	ScreenReverseProxy,
	ScreenPortSelection,
	ScreenReverseProxyTemplate,
	ScreenDelegationTemplate,
	ScreenDatabase,
}

var screenTitles = map[Screen]string{
	ScreenIntro:                   "Welcome",
	ScreenServerName:              "Server Name",
	ScreenStatsReport:             "Anonymous Statistics",
	ScreenKeyExport:               "Signing Key Export",
	ScreenDelegationOptions:       "Delegation",
	ScreenDelegationServerName:    "Delegated Server Name",
	ScreenWellKnown:               "Well-Known Delegation",
	ScreenDNS:                     "DNS Delegation",
	ScreenTLS:                     "TLS",
	ScreenTLSCertPath:             "TLS Certificate Paths",
	ScreenReverseProxy:            "Reverse Proxy",
	ScreenReverseProxyTemplate:    "Reverse Proxy Configuration",
	ScreenDelegationPortSelection: "Delegation Ports",
	ScreenDelegationTemplate:      "Delegation Configuration",
	ScreenPortSelection:           "Synapse Ports",
	ScreenDatabase:                "Database",
}

// Screens returns every screen in wizard order. The returned slice is a copy.
func Screens() []Screen {
	out := make([]Screen, len(allScreens))
	copy(out, allScreens)
	return out
}

// Valid reports whether s is one of the known screens.
func (s Screen) Valid() bool {
	_, ok := screenTitles[s]
	return ok
}

// Title returns the human-readable title of the screen.
func (s Screen) Title() string {
	if title, ok := screenTitles[s]; ok {
		return title
	}
	return string(s)
}

func (s Screen) String() string {
	return string(s)
}

// ParseScreen converts a wire value into a Screen.
func ParseScreen(value string) (Screen, error) {
	s := Screen(value)
	if !s.Valid() {
		return "", fmt.Errorf("unknown screen %q", value)
	}
	return s, nil
}

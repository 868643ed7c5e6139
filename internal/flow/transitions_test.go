package flow

import (
	"reflect"
	"testing"
)

func allContexts() []Context {
	tlsTypes := append(TLSOptions(), "")
	delegations := append(DelegationOptions(), "")

	var out []Context
	for _, tls := range tlsTypes {
		for _, d := range delegations {
			out = append(out, Context{TLS: tls, Delegation: d})
		}
	}
	return out
}

func allActions() []Action {
	actions := []Action{
		CheckBaseConfig(),
		Advance(),
		Back(),
		{Type: "jump"},
		{Type: ActionAdvance, Option: "bogus"},
	}
	for _, d := range DelegationOptions() {
		actions = append(actions, AdvanceDelegation(d))
	}
	for _, t := range TLSOptions() {
		actions = append(actions, AdvanceTLS(t))
	}
	return actions
}

func TestNext_Total(t *testing.T) {
	screens := append(Screens(), Screen("not-a-screen"))

	for _, s := range screens {
		for _, a := range allActions() {
			for _, ctx := range allContexts() {
				got := Next(s, a, ctx)
				if got == "" {
					t.Fatalf("Next(%s, %s, %+v) returned empty screen", s, a, ctx)
				}
				if !got.Valid() && got != s {
					t.Errorf("Next(%s, %s, %+v) = %q, not a known screen", s, a, ctx, got)
				}
			}
		}
	}
}

func TestNext_CheckBaseConfigAlwaysIntro(t *testing.T) {
	for _, s := range Screens() {
		for _, ctx := range allContexts() {
			if got := Next(s, CheckBaseConfig(), ctx); got != ScreenIntro {
				t.Errorf("Next(%s, CheckBaseConfig) = %s, want intro", s, got)
			}
		}
	}
}

func TestNext_Advance(t *testing.T) {
	tests := []struct {
		name    string
		current Screen
		action  Action
		ctx     Context
		want    Screen
	}{
		{"intro", ScreenIntro, Advance(), Context{}, ScreenServerName},
		{"server name", ScreenServerName, Advance(), Context{}, ScreenStatsReport},
		{"stats report", ScreenStatsReport, Advance(), Context{}, ScreenKeyExport},
		{"key export", ScreenKeyExport, Advance(), Context{}, ScreenDelegationOptions},

		{"delegation dns", ScreenDelegationOptions, AdvanceDelegation(DelegationDNS), Context{}, ScreenDelegationServerName},
		{"delegation well-known", ScreenDelegationOptions, AdvanceDelegation(DelegationWellKnown), Context{}, ScreenDelegationServerName},
		{"delegation local", ScreenDelegationOptions, AdvanceDelegation(DelegationLocal), Context{}, ScreenTLS},
		{"delegation without option", ScreenDelegationOptions, Advance(), Context{}, ScreenDelegationOptions},
		{"delegation with tls option", ScreenDelegationOptions, AdvanceTLS(TLSACME), Context{}, ScreenDelegationOptions},

		{"delegation server name", ScreenDelegationServerName, Advance(), Context{}, ScreenDelegationPortSelection},
		{"delegation ports", ScreenDelegationPortSelection, Advance(), Context{}, ScreenTLS},

		{"tls acme", ScreenTLS, AdvanceTLS(TLSACME), Context{}, ScreenPortSelection},
		{"tls none", ScreenTLS, AdvanceTLS(TLSNone), Context{}, ScreenPortSelection},
		{"tls manual", ScreenTLS, AdvanceTLS(TLSManual), Context{}, ScreenTLSCertPath},
		{"tls reverse proxy", ScreenTLS, AdvanceTLS(TLSReverseProxy), Context{}, ScreenReverseProxy},
		{"tls without option", ScreenTLS, Advance(), Context{}, ScreenTLS},

		{"reverse proxy", ScreenReverseProxy, Advance(), Context{}, ScreenPortSelection},
		{"cert path", ScreenTLSCertPath, Advance(), Context{}, ScreenPortSelection},

		{"ports behind proxy", ScreenPortSelection, Advance(), Context{TLS: TLSReverseProxy}, ScreenReverseProxyTemplate},
		{"ports behind proxy local", ScreenPortSelection, Advance(), Context{TLS: TLSReverseProxy, Delegation: DelegationLocal}, ScreenReverseProxyTemplate},
		{"ports delegated", ScreenPortSelection, Advance(), Context{TLS: TLSNone, Delegation: DelegationDNS}, ScreenDelegationTemplate},
		{"ports local", ScreenPortSelection, Advance(), Context{TLS: TLSNone, Delegation: DelegationLocal}, ScreenDatabase},

		{"proxy template delegated", ScreenReverseProxyTemplate, Advance(), Context{Delegation: DelegationWellKnown}, ScreenDelegationTemplate},
		{"proxy template local", ScreenReverseProxyTemplate, Advance(), Context{Delegation: DelegationLocal}, ScreenDatabase},
		{"delegation template", ScreenDelegationTemplate, Advance(), Context{}, ScreenDatabase},

		{"well-known falls back", ScreenWellKnown, Advance(), Context{}, ScreenIntro},
		{"dns falls back", ScreenDNS, Advance(), Context{}, ScreenIntro},
		{"database falls back", ScreenDatabase, Advance(), Context{}, ScreenIntro},
		{"unknown screen falls back", Screen("nowhere"), Advance(), Context{}, ScreenIntro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.current, tt.action, tt.ctx); got != tt.want {
				t.Errorf("Next(%s, %s, %+v) = %s, want %s", tt.current, tt.action, tt.ctx, got, tt.want)
			}
		})
	}
}

func TestNext_Back(t *testing.T) {
	defined := map[Screen]Screen{
		ScreenStatsReport:       ScreenServerName,
		ScreenKeyExport:         ScreenStatsReport,
		ScreenDelegationOptions: ScreenKeyExport,
		ScreenWellKnown:         ScreenDelegationOptions,
		ScreenDNS:               ScreenWellKnown,
	}

	for _, s := range Screens() {
		want, ok := defined[s]
		if !ok {
			want = s
		}
		if got := Next(s, Back(), Context{}); got != want {
			t.Errorf("Next(%s, Back) = %s, want %s", s, got, want)
		}
		if HasBack(s) != ok {
			t.Errorf("HasBack(%s) = %v, want %v", s, HasBack(s), ok)
		}
	}
}

func TestNext_BackRoundTrip(t *testing.T) {
	ctx := Context{}
	forward := Next(ScreenServerName, Advance(), ctx)
	if got := Next(forward, Back(), ctx); got != ScreenServerName {
		t.Errorf("round trip from server-name ended on %s", got)
	}
}

func TestNext_UnknownActionIsNoop(t *testing.T) {
	for _, s := range Screens() {
		if got := Next(s, Action{Type: "teleport"}, Context{}); got != s {
			t.Errorf("Next(%s, teleport) = %s, want unchanged", s, got)
		}
	}
}

func TestWalk_LocalNoTLS(t *testing.T) {
	got := Walk(NewState(),
		Advance(),
		Advance(),
		Advance(),
		Advance(),
		AdvanceDelegation(DelegationLocal),
		AdvanceTLS(TLSNone),
		Advance(),
	)

	want := []Screen{
		ScreenIntro,
		ScreenServerName,
		ScreenStatsReport,
		ScreenKeyExport,
		ScreenDelegationOptions,
		ScreenTLS,
		ScreenPortSelection,
		ScreenDatabase,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalk_DelegatedBehindProxy(t *testing.T) {
	got := Walk(NewState(),
		Advance(),
		Advance(),
		Advance(),
		Advance(),
		AdvanceDelegation(DelegationWellKnown),
		Advance(),
		Advance(),
		AdvanceTLS(TLSReverseProxy),
		Advance(),
		Advance(),
		Advance(),
		Advance(),
	)

	want := []Screen{
		ScreenIntro,
		ScreenServerName,
		ScreenStatsReport,
		ScreenKeyExport,
		ScreenDelegationOptions,
		ScreenDelegationServerName,
		ScreenDelegationPortSelection,
		ScreenTLS,
		ScreenReverseProxy,
		ScreenPortSelection,
		ScreenReverseProxyTemplate,
		ScreenDelegationTemplate,
		ScreenDatabase,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

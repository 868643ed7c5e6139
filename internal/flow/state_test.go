package flow

import "testing"

func TestState_ApplyRecordsOptions(t *testing.T) {
	s := State{Screen: ScreenDelegationOptions}

	next := s.Apply(AdvanceDelegation(DelegationDNS))
	if next.Screen != ScreenDelegationServerName {
		t.Errorf("Screen = %s, want %s", next.Screen, ScreenDelegationServerName)
	}
	if next.Context.Delegation != DelegationDNS {
		t.Errorf("Delegation = %q, want %q", next.Context.Delegation, DelegationDNS)
	}
	if s.Context.Delegation != "" {
		t.Error("Apply() must not modify the receiver")
	}

	tls := State{Screen: ScreenTLS, Context: next.Context}.Apply(AdvanceTLS(TLSReverseProxy))
	if tls.Context.TLS != TLSReverseProxy {
		t.Errorf("TLS = %q, want %q", tls.Context.TLS, TLSReverseProxy)
	}
	if tls.Context.Delegation != DelegationDNS {
		t.Error("recording TLS should keep the delegation choice")
	}
}

func TestState_ApplyIgnoresForeignOptions(t *testing.T) {
	tests := []struct {
		name   string
		state  State
		action Action
		want   Context
	}{
		{
			name:   "tls option on delegation screen",
			state:  State{Screen: ScreenDelegationOptions},
			action: AdvanceTLS(TLSACME),
			want:   Context{},
		},
		{
			name:   "delegation option on tls screen",
			state:  State{Screen: ScreenTLS, Context: Context{Delegation: DelegationLocal}},
			action: AdvanceDelegation(DelegationDNS),
			want:   Context{Delegation: DelegationLocal},
		},
		{
			name:   "option on linear screen",
			state:  State{Screen: ScreenServerName},
			action: AdvanceTLS(TLSNone),
			want:   Context{},
		},
		{
			name:   "back keeps context",
			state:  State{Screen: ScreenKeyExport, Context: Context{TLS: TLSACME}},
			action: Action{Type: ActionBack, Option: string(TLSNone)},
			want:   Context{TLS: TLSACME},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.Apply(tt.action)
			if got.Context != tt.want {
				t.Errorf("Context = %+v, want %+v", got.Context, tt.want)
			}
		})
	}
}

func TestState_ApplyUsesRecordedContextForBranching(t *testing.T) {
	s := State{Screen: ScreenTLS, Context: Context{Delegation: DelegationLocal}}
	s = s.Apply(AdvanceTLS(TLSReverseProxy))
	s = s.Apply(Advance()) // reverse-proxy -> port-selection
	s = s.Apply(Advance())

	if s.Screen != ScreenReverseProxyTemplate {
		t.Errorf("Screen = %s, want %s", s.Screen, ScreenReverseProxyTemplate)
	}

	s = s.Apply(Advance())
	if !s.Final() {
		t.Errorf("Screen = %s, want database", s.Screen)
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseScreen("tls-certpath"); err != nil {
		t.Errorf("ParseScreen(tls-certpath) error = %v", err)
	}
	if _, err := ParseScreen("tls_certpath"); err == nil {
		t.Error("ParseScreen(tls_certpath) should fail")
	}
	if d, err := ParseDelegationType("well_known"); err != nil || d != DelegationWellKnown {
		t.Errorf("ParseDelegationType(well_known) = %q, %v", d, err)
	}
	if _, err := ParseDelegationType("WELL_KNOWN"); err == nil {
		t.Error("ParseDelegationType should be case sensitive")
	}
	if tls, err := ParseTLSType("reverse_proxy"); err != nil || tls != TLSReverseProxy {
		t.Errorf("ParseTLSType(reverse_proxy) = %q, %v", tls, err)
	}
	if _, err := ParseAction("advance", "local"); err != nil {
		t.Errorf("ParseAction(advance) error = %v", err)
	}
	if _, err := ParseAction("sideways", ""); err == nil {
		t.Error("ParseAction(sideways) should fail")
	}
}

func TestScreens_TitlesAndOrder(t *testing.T) {
	screens := Screens()
	if len(screens) != 16 {
		t.Fatalf("len(Screens()) = %d, want 16", len(screens))
	}
	if screens[0] != ScreenIntro || screens[len(screens)-1] != ScreenDatabase {
		t.Errorf("Screens() should start at intro and end at database, got %v", screens)
	}

	seen := make(map[Screen]bool)
	for _, s := range screens {
		if seen[s] {
			t.Errorf("duplicate screen %s", s)
		}
		seen[s] = true
		if s.Title() == string(s) {
			t.Errorf("screen %s has no title", s)
		}
	}

	screens[0] = ScreenDNS
	if Screens()[0] != ScreenIntro {
		t.Error("Screens() must return a copy")
	}
}

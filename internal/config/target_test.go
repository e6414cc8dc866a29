package config

import (
	"strings"
	"testing"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		opts    TargetOptions
		wantURI string
		wantKey string
		wantErr string
	}{
		{
			name:    "from environment",
			env:     map[string]string{EndpointURIEnv: "https://env.example/score", APIKeyEnv: "env-key"},
			wantURI: "https://env.example/score",
			wantKey: "env-key",
		},
		{
			name:    "explicit wins over environment",
			env:     map[string]string{EndpointURIEnv: "https://env.example/score", APIKeyEnv: "env-key"},
			opts:    TargetOptions{EndpointURI: "https://explicit.example/score", APIKey: "explicit-key"},
			wantURI: "https://explicit.example/score",
			wantKey: "explicit-key",
		},
		{
			name:    "mixed sources",
			env:     map[string]string{APIKeyEnv: "env-key"},
			opts:    TargetOptions{EndpointURI: "https://explicit.example/score"},
			wantURI: "https://explicit.example/score",
			wantKey: "env-key",
		},
		{
			name:    "missing endpoint",
			env:     map[string]string{APIKeyEnv: "env-key"},
			wantErr: EndpointURIEnv,
		},
		{
			name:    "missing key",
			opts:    TargetOptions{EndpointURI: "https://explicit.example/score"},
			wantErr: APIKeyEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EndpointURIEnv, "")
			t.Setenv(APIKeyEnv, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			target, err := ResolveTarget(tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("ResolveTarget() error = %v, want mention of %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTarget() error = %v", err)
			}
			if target.EndpointURI() != tt.wantURI || target.APIKey() != tt.wantKey {
				t.Errorf("ResolveTarget() = %q %q, want %q %q", target.EndpointURI(), target.APIKey(), tt.wantURI, tt.wantKey)
			}
		})
	}
}

func TestTarget_FixedAfterResolve(t *testing.T) {
	t.Setenv(EndpointURIEnv, "https://first.example/score")
	t.Setenv(APIKeyEnv, "first-key")

	target, err := ResolveTarget(TargetOptions{})
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}

	t.Setenv(EndpointURIEnv, "https://second.example/score")
	if target.EndpointURI() != "https://first.example/score" {
		t.Errorf("EndpointURI() = %q, changed after resolve", target.EndpointURI())
	}
}

package main

import "testing"

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
		want string
	}{
		{"flag with separate value", []string{"alarm", "list", "--config", "/tmp/cw"}, "", "/tmp/cw"},
		{"flag with equals", []string{"--config=/tmp/cw", "monitor"}, "", "/tmp/cw"},
		{"flag wins over env", []string{"--config", "/tmp/flag"}, "/tmp/env", "/tmp/flag"},
		{"env fallback", []string{"alarm", "list"}, "/tmp/env", "/tmp/env"},
		{"neither set", []string{"version"}, "", ""},
		{"trailing flag without value", []string{"--config"}, "/tmp/env", "/tmp/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COINWATCH_CONFIG_DIR", tt.env)
			if got := resolveConfigDir(tt.args); got != tt.want {
				t.Errorf("resolveConfigDir(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

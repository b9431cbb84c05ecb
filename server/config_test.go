package server

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      *Config
		wantErr     bool
		errContains string
	}{
		{
			name:    "defaults",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "retransmit cap",
			config:  &Config{Timeout: 500 * time.Millisecond, MaxRetransmits: 5},
			wantErr: false,
		},
		{
			name:        "zero timeout",
			config:      &Config{Timeout: 0},
			wantErr:     true,
			errContains: "timeout must be positive",
		},
		{
			name:        "negative timeout",
			config:      &Config{Timeout: -time.Second},
			wantErr:     true,
			errContains: "timeout must be positive",
		},
		{
			name:        "negative retransmits",
			config:      &Config{Timeout: time.Second, MaxRetransmits: -1},
			wantErr:     true,
			errContains: "max retransmits cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Timeout != 2*time.Second {
		t.Errorf("default timeout = %v, want 2s", config.Timeout)
	}
	if config.MaxRetransmits != 0 {
		t.Errorf("default max retransmits = %d, want 0 (unlimited)", config.MaxRetransmits)
	}
}

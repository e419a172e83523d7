// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{
			name:         "environment variable set",
			key:          "TEST_STRING",
			defaultValue: "default",
			envValue:     "from-env",
			envSet:       true,
			want:         "from-env",
		},
		{
			name:         "environment variable not set",
			key:          "TEST_STRING_UNSET",
			defaultValue: "default",
			envSet:       false,
			want:         "default",
		},
		{
			name:         "environment variable empty string",
			key:          "TEST_STRING_EMPTY",
			defaultValue: "default",
			envValue:     "",
			envSet:       true,
			want:         "default",
		},
		{
			name:         "sensitive variable (password)",
			key:          "TEST_PASSWORD",
			defaultValue: "default",
			envValue:     "secret123",
			envSet:       true,
			want:         "secret123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseString(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		envSet       bool
		want         int
	}{
		{
			name:         "valid integer",
			key:          "TEST_INT",
			defaultValue: 5,
			envValue:     "42",
			envSet:       true,
			want:         42,
		},
		{
			name:         "invalid integer falls back",
			key:          "TEST_INT_BAD",
			defaultValue: 5,
			envValue:     "not-a-number",
			envSet:       true,
			want:         5,
		},
		{
			name:         "unset uses default",
			key:          "TEST_INT_UNSET",
			defaultValue: 7,
			envSet:       false,
			want:         7,
		},
		{
			name:         "empty uses default",
			key:          "TEST_INT_EMPTY",
			defaultValue: 9,
			envValue:     "",
			envSet:       true,
			want:         9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		envSet       bool
		want         time.Duration
	}{
		{
			name:         "valid duration",
			key:          "TEST_DUR",
			defaultValue: time.Second,
			envValue:     "30s",
			envSet:       true,
			want:         30 * time.Second,
		},
		{
			name:         "invalid duration falls back",
			key:          "TEST_DUR_BAD",
			defaultValue: time.Minute,
			envValue:     "thirty",
			envSet:       true,
			want:         time.Minute,
		},
		{
			name:         "unset uses default",
			key:          "TEST_DUR_UNSET",
			defaultValue: 5 * time.Second,
			envSet:       false,
			want:         5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		envSet       bool
		want         bool
	}{
		{"true literal", "TEST_BOOL_T", false, "true", true, true},
		{"one", "TEST_BOOL_1", false, "1", true, true},
		{"yes", "TEST_BOOL_Y", false, "yes", true, true},
		{"false literal", "TEST_BOOL_F", true, "false", true, false},
		{"zero", "TEST_BOOL_0", true, "0", true, false},
		{"no", "TEST_BOOL_N", true, "no", true, false},
		{"garbage falls back", "TEST_BOOL_BAD", true, "maybe", true, true},
		{"unset uses default", "TEST_BOOL_UNSET", true, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	if got := ParseFloat("TEST_FLOAT", 1.0); got != 2.5 {
		t.Errorf("ParseFloat() = %v, want 2.5", got)
	}

	t.Setenv("TEST_FLOAT_BAD", "fast")
	if got := ParseFloat("TEST_FLOAT_BAD", 1.5); got != 1.5 {
		t.Errorf("ParseFloat() = %v, want fallback 1.5", got)
	}
}

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		envSet       bool
		defaultValue []string
		want         []string
	}{
		{"comma separated", "en,de,fr", true, []string{"en"}, []string{"en", "de", "fr"}},
		{"spaces trimmed", " en , de ", true, nil, []string{"en", "de"}},
		{"empty entries dropped", "en,,de,", true, nil, []string{"en", "de"}},
		{"unset uses default", "", false, []string{"en"}, []string{"en"}},
		{"only commas uses default", ",,,", true, []string{"en"}, []string{"en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv("TEST_LIST", tt.envValue)
			}

			got := ParseStringList("TEST_LIST", tt.defaultValue)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseStringList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseStringList()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		flags   []string
		want    *Config
		wantErr bool
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: &Config{
				RunAddress: "localhost:8080",
			},
		},
		{
			name: "flags only",
			env: map[string]string{
				"PAYMENT_API_TOKEN": "token-from-env",
			},
			flags: []string{"-a", ":9090", "-d", "postgres://flag", "-p", "https://pay.flag"},
			want: &Config{
				RunAddress:      ":9090",
				DatabaseURI:     "postgres://flag",
				PaymentBaseURL:  "https://pay.flag",
				PaymentAPIToken: "token-from-env",
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"RUN_ADDRESS":       ":7070",
				"DATABASE_URI":      "postgres://env",
				"PAYMENT_BASE_URL":  "https://pay.env",
				"PAYMENT_API_TOKEN": "token-from-env",
				"AUTH_SECRET":       "secret",
			},
			flags: []string{"-a", ":9090", "-d", "postgres://flag", "-p", "https://pay.flag"},
			want: &Config{
				RunAddress:      ":7070",
				DatabaseURI:     "postgres://env",
				PaymentBaseURL:  "https://pay.env",
				PaymentAPIToken: "token-from-env",
				AuthSecret:      "secret",
			},
		},
		{
			name: "payment url without token",
			env: map[string]string{
				"PAYMENT_BASE_URL": "https://pay.env",
			},
			flags:   []string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for _, key := range []string{"RUN_ADDRESS", "DATABASE_URI", "PAYMENT_BASE_URL", "PAYMENT_API_TOKEN", "AUTH_SECRET"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()
			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := Parse()
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

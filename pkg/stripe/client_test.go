package stripe

import (
	"context"
	"testing"

	"github.com/threadline-co/storefront-backend/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{
			name: "test env with test key",
			cfg:  config.StripeConfig{APIKey: "sk_test_abc123", Env: "test"},
		},
		{
			name:    "test env with live key",
			cfg:     config.StripeConfig{APIKey: "sk_live_abc123", Env: "test"},
			wantErr: true,
		},
		{
			name:    "live env with test key",
			cfg:     config.StripeConfig{APIKey: "sk_test_abc123", Env: "live"},
			wantErr: true,
		},
		{
			name: "empty env defaults to test",
			cfg:  config.StripeConfig{APIKey: "rk_test_abc123"},
		},
		{
			name:    "missing api key",
			cfg:     config.StripeConfig{Env: "test"},
			wantErr: true,
		},
		{
			name:    "unknown env",
			cfg:     config.StripeConfig{APIKey: "sk_test_abc123", Env: "staging"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(ctx, tc.cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.API() == nil {
				t.Fatal("expected initialized api client")
			}
		})
	}
}

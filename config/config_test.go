package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		wantErr error
	}{
		{name: "both secrets set", access: "a", refresh: "r"},
		{name: "missing access secret", refresh: "r", wantErr: ErrMissingSecret},
		{name: "missing refresh secret", access: "a", wantErr: ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.JWT.AccessSecret = tt.access
			cfg.JWT.RefreshSecret = tt.refresh

			err := cfg.validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

package dto_test

import (
	"net/http"
	"strings"
	"testing"

	"stayfinder/internal/domains/booking/model/dto"
	"stayfinder/shared/failure"
	"stayfinder/shared/validator"

	"github.com/stretchr/testify/assert"
)

func TestCancelRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		wantErr bool
	}{
		{name: "empty reason", reason: ""},
		{name: "short reason", reason: "flight cancelled"},
		{name: "reason at the limit", reason: strings.Repeat("a", 500)},
		{name: "reason too long", reason: strings.Repeat("a", 501), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dto.CancelRequest{Reason: tt.reason}

			err := validator.ValidateStruct(&req)
			if tt.wantErr {
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
				return
			}

			assert.NoError(t, err)
		})
	}
}

package dto

import (
	"stayfinder/shared/constant"
	"stayfinder/shared/model"
	"stayfinder/shared/timezone"
)

// Metadata renders the audit block with timestamps in the app timezone.
type Metadata struct {
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	CreatedBy  string `json:"created_by,omitempty"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

func (m *Metadata) FromModel(model model.Metadata) {
	*m = Metadata{
		CreatedAt:  timezone.Format(model.CreatedAt, constant.DateFormat),
		ModifiedAt: timezone.Format(model.ModifiedAt, constant.DateFormat),
		CreatedBy:  model.CreatedBy,
		ModifiedBy: model.ModifiedBy,
	}
}

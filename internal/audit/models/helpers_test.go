package models_test

import (
	"time"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/clock"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedAt(s string) clock.Fixed {
	return clock.Fixed{At: day(s)}
}

func newAudit() *models.QualityAudit {
	return models.NewQualityAudit(id.NewClientID(), id.NewStandardID())
}

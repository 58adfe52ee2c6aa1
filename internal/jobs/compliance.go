package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"school_transport/internal/audit"
	"school_transport/internal/compliance"
	"school_transport/internal/expiry"
	"school_transport/internal/models"
)

// ExpiredDocuments finds documents whose last valid day was day.
type ExpiredDocuments interface {
	DocumentsExpiredOn(ctx context.Context, day time.Time) ([]models.Document, error)
}

type Auditor interface {
	Record(audit.Entry)
}

// ComplianceSweep logs the fleet's expiry counts and audits every document
// that expired since the previous run.
type ComplianceSweep struct {
	source  compliance.Source
	expired ExpiredDocuments
	audit   Auditor
	now     func() time.Time
}

func NewComplianceSweep(src compliance.Source, expired ExpiredDocuments, a Auditor) *ComplianceSweep {
	return &ComplianceSweep{source: src, expired: expired, audit: a, now: time.Now}
}

// SweepResult is what one run saw.
type SweepResult struct {
	Counts       map[expiry.StatusKind]int
	NewlyExpired int
}

func (s *ComplianceSweep) Run(ctx context.Context) (SweepResult, error) {
	today := s.now()
	ov, err := compliance.Load(ctx, s.source, today)
	if err != nil {
		logrus.WithError(err).Error("compliance sweep: load failed")
		return SweepResult{}, err
	}
	res := SweepResult{Counts: ov.Counts}

	logrus.WithFields(logrus.Fields{
		"expired":  ov.Counts[expiry.Expired],
		"critical": ov.Counts[expiry.Critical],
		"warning":  ov.Counts[expiry.Warning],
	}).Info("compliance sweep")

	yesterday := today.AddDate(0, 0, -1)
	docs, err := s.expired.DocumentsExpiredOn(ctx, yesterday)
	if err != nil {
		logrus.WithError(err).Error("compliance sweep: expired documents query failed")
		return res, err
	}
	for _, d := range docs {
		s.audit.Record(audit.Entry{
			TableName: "documents",
			RecordID:  strconv.FormatUint(uint64(d.ID), 10),
			Action:    audit.Expire,
			At:        today,
		})
	}
	res.NewlyExpired = len(docs)
	return res, nil
}

// Job adapts Run to the scheduler.
func (s *ComplianceSweep) Job(ctx context.Context) {
	_, _ = s.Run(ctx)
}

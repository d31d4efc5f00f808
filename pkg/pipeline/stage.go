package pipeline

import (
	"go.uber.org/zap"

	"github.com/Haithedotai/core/pkg/apierr"
)

// Stage is a step of a completion run. A run only moves forward; any failure
// is terminal.
type Stage int

const (
	StageStart Stage = iota
	StageEntitlementResolved
	StageProductsMatched
	StageKnowledgeAssembled
	StageBalanceChecked
	StagePaymentsCollected
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageEntitlementResolved:
		return "entitlement_resolved"
	case StageProductsMatched:
		return "products_matched"
	case StageKnowledgeAssembled:
		return "knowledge_assembled"
	case StageBalanceChecked:
		return "balance_checked"
	case StagePaymentsCollected:
		return "payments_collected"
	case StageCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type run struct {
	log   *zap.Logger
	stage Stage
}

func (r *run) advance(next Stage, fields ...zap.Field) {
	r.stage = next
	r.log.Debug("Pipeline stage reached", append(fields, zap.Stringer("stage", next))...)
}

// fail logs err once, tagged with the last stage reached, and returns it.
func (r *run) fail(err error) error {
	fields := []zap.Field{
		zap.Stringer("stage", r.stage),
		zap.String("kind", apierr.KindOf(err).String()),
		zap.Error(err),
	}
	if apierr.KindOf(err) == apierr.KindInternal {
		r.log.Error("Completion failed", fields...)
	} else {
		r.log.Info("Completion rejected", fields...)
	}
	return err
}

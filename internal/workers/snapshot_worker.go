package workers

import (
	"context"
	"sort"
	"time"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/services/risk"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

const SnapshotWorkerName = "risk_snapshot"

// Assessor produces fresh assessments for every region with one model
// (primary when empty). Cached results must not be returned.
type Assessor interface {
	RefreshAll(ctx context.Context, modelName string) ([]prediction.Assessment, map[string]error, error)
}

// SnapshotWorker predicts every region and hands the results to the
// history store and the event publisher. Either sink may be nil.
type SnapshotWorker struct {
	*BaseWorker
	assessor  Assessor
	store     prediction.Repository
	publisher prediction.Publisher
}

// NewSnapshotWorker creates the periodic risk snapshot worker
func NewSnapshotWorker(
	assessor Assessor,
	store prediction.Repository,
	publisher prediction.Publisher,
	interval time.Duration,
	enabled bool,
	log *logger.Logger,
) *SnapshotWorker {
	return &SnapshotWorker{
		BaseWorker: NewBaseWorker(SnapshotWorkerName, interval, enabled, log),
		assessor:   assessor,
		store:      store,
		publisher:  publisher,
	}
}

// Run assesses all regions once. Per-region failures are logged and skipped;
// only artifact and sink failures fail the run.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	assessments, failures, err := w.assessor.RefreshAll(ctx, "")
	if err != nil {
		return errors.Wrap(err, "assess regions")
	}

	for _, region := range sortedKeys(failures) {
		w.Log().Warnw("Region assessment failed", "region", region, "error", failures[region])
	}

	if len(assessments) == 0 {
		w.Log().Warn("No region could be assessed, nothing to snapshot")
		return nil
	}

	preds := make([]prediction.Prediction, 0, len(assessments))
	for _, a := range assessments {
		preds = append(preds, a.Prediction)
	}

	var errs errors.MultiError
	if w.store != nil {
		errs.Add(errors.Wrap(w.store.Store(ctx, preds), "store predictions"))
	}
	if w.publisher != nil {
		errs.Add(errors.Wrap(w.publisher.PublishAssessed(ctx, preds), "publish predictions"))
	}

	counts := risk.TierCounts(assessments)
	w.Log().Infow("Risk snapshot taken",
		"regions", len(preds),
		"failed", len(failures),
		counts[0].Tier.String(), counts[0].Count,
		counts[1].Tier.String(), counts[1].Count,
		counts[2].Tier.String(), counts[2].Count,
	)

	return errs.ToError()
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

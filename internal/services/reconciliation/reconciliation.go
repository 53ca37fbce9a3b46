// Package reconciliation периодически находит учётные записи, которым нужен переход
// тарифа по дате (окончание пробного периода, начало нового расчётного месяца), и применяет его.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/content-generator/internal/lib/clock"
	"github.com/magabrotheeeer/content-generator/internal/lib/metrics"
	"github.com/magabrotheeeer/content-generator/internal/lib/sl"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Названия проверок для логов и метрик.
const (
	SweepTrialsName = "trials"
	SweepCyclesName = "cycles"
)

// Candidates выбирает учётные записи для проверки.
type Candidates interface {
	FindExpiredTrials(ctx context.Context, now time.Time) ([]string, error)
	FindDueForCycleReset(ctx context.Context, plan models.Plan, now time.Time) ([]string, error)
}

// Transitions применяет переход к одной учётной записи в отдельной транзакции.
type Transitions interface {
	ExpireTrial(ctx context.Context, uid string) (*models.Account, bool, error)
	ResetCycle(ctx context.Context, uid string, plan models.Plan) (*models.Account, bool, error)
}

// SweepReport итог одного прохода.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// Add складывает отчёты.
func (r SweepReport) Add(other SweepReport) SweepReport {
	return SweepReport{
		Scanned: r.Scanned + other.Scanned,
		Applied: r.Applied + other.Applied,
		Failed:  r.Failed + other.Failed,
	}
}

// Worker фоновые проверки тарифов.
type Worker struct {
	candidates    Candidates
	transitions   Transitions
	clock         clock.Clock
	log           *slog.Logger
	trialInterval time.Duration
	cycleInterval time.Duration
}

// NewWorker создаёт Worker. Нулевые интервалы заменяются суточными.
func NewWorker(candidates Candidates, transitions Transitions, clk clock.Clock, log *slog.Logger, trialInterval, cycleInterval time.Duration) *Worker {
	if trialInterval <= 0 {
		trialInterval = 24 * time.Hour
	}
	if cycleInterval <= 0 {
		cycleInterval = 24 * time.Hour
	}
	return &Worker{
		candidates:    candidates,
		transitions:   transitions,
		clock:         clk,
		log:           log,
		trialInterval: trialInterval,
		cycleInterval: cycleInterval,
	}
}

// SweepTrials переводит на Free все учётные записи с истёкшим пробным периодом.
// Ошибка по отдельной записи учитывается в отчёте и не прерывает проход.
func (w *Worker) SweepTrials(ctx context.Context) (SweepReport, error) {
	const op = "services.reconciliation.SweepTrials"
	log := w.log.With(sl.Op(op))

	uids, err := w.candidates.FindExpiredTrials(ctx, w.clock.Now())
	if err != nil {
		return SweepReport{}, fmt.Errorf("%s: %w", op, err)
	}

	report := w.sweep(ctx, log, SweepTrialsName, uids, func(ctx context.Context, uid string) (bool, error) {
		_, changed, err := w.transitions.ExpireTrial(ctx, uid)
		return changed, err
	})
	log.Info("trial sweep finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("applied", report.Applied),
		slog.Int("failed", report.Failed))
	return report, ctx.Err()
}

// SweepCycles сбрасывает счётчики учётных записей тарифа plan, у которых наступила дата списания.
func (w *Worker) SweepCycles(ctx context.Context, plan models.Plan) (SweepReport, error) {
	const op = "services.reconciliation.SweepCycles"
	log := w.log.With(sl.Op(op), slog.String("plan", plan.String()))

	uids, err := w.candidates.FindDueForCycleReset(ctx, plan, w.clock.Now())
	if err != nil {
		return SweepReport{}, fmt.Errorf("%s: %w", op, err)
	}

	report := w.sweep(ctx, log, SweepCyclesName, uids, func(ctx context.Context, uid string) (bool, error) {
		_, changed, err := w.transitions.ResetCycle(ctx, uid, plan)
		return changed, err
	})
	log.Info("cycle sweep finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("applied", report.Applied),
		slog.Int("failed", report.Failed))
	return report, ctx.Err()
}

// SweepAllCycles выполняет SweepCycles для всех тарифов с расчётным месяцем.
func (w *Worker) SweepAllCycles(ctx context.Context) (SweepReport, error) {
	var (
		total SweepReport
		errs  []error
	)
	for _, plan := range models.CyclePlans {
		report, err := w.SweepCycles(ctx, plan)
		total = total.Add(report)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return total, errors.Join(errs...)
}

// Run запускает проверки сразу и далее по таймерам до отмены ctx.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("reconciliation worker started",
		slog.Duration("trial_interval", w.trialInterval),
		slog.Duration("cycle_interval", w.cycleInterval))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.loop(ctx, w.trialInterval, func(ctx context.Context) error {
			_, err := w.SweepTrials(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		w.loop(ctx, w.cycleInterval, func(ctx context.Context) error {
			_, err := w.SweepAllCycles(ctx)
			return err
		})
		return nil
	})
	err := g.Wait()

	w.log.Info("reconciliation worker stopped")
	return err
}

func (w *Worker) loop(ctx context.Context, interval time.Duration, run func(ctx context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := run(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("sweep failed", sl.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) sweep(ctx context.Context, log *slog.Logger, name string, uids []string, apply func(ctx context.Context, uid string) (bool, error)) SweepReport {
	var report SweepReport
	for _, uid := range uids {
		if ctx.Err() != nil {
			break
		}
		report.Scanned++

		changed, err := apply(ctx, uid)
		switch {
		case err != nil:
			report.Failed++
			metrics.SweepAccounts.WithLabelValues(name, metrics.OutcomeError).Inc()
			log.Error("failed to apply transition", slog.String("account_uid", uid), sl.Err(err))
		case changed:
			report.Applied++
			metrics.SweepAccounts.WithLabelValues(name, metrics.OutcomeOK).Inc()
		default:
			metrics.SweepAccounts.WithLabelValues(name, metrics.OutcomeSkipped).Inc()
		}
	}
	return report
}

/*
report.go - Daily report submission state machine

PURPOSE:
  ReportLedger owns the per-date daily-report record and its time-gated
  submission. A date moves NoReport -> Draft (computed, never persisted)
  -> Submitted. Submitted is terminal but may be re-entered: resubmitting
  refreshes the totals while SubmittedAt keeps the timestamp of the FIRST
  close-of-day, so the record always answers "when was the day closed",
  not "when was it last refreshed".

TIME GATE:
  Submission is rejected before 18:00 local wall-clock time. The hour is
  read from the injected Clock at call time; there is no background
  scheduling and the gate is evaluated synchronously.

TOTALS:
  Computed via the day summary reduction at submission time, inside the
  same transactional unit that writes the report, so the stored totals
  match the sales visible at that moment.
*/
package ledger

import (
	"context"
	"fmt"
)

// SubmitGateHour is the local hour from which a day may be closed.
const SubmitGateHour = 18

// ReportLedger owns daily-report records and their submission state.
type ReportLedger struct {
	store TxStore
	clock Clock
}

func NewReportLedger(store TxStore, clock Clock) *ReportLedger {
	return &ReportLedger{store: store, clock: clock}
}

// Submit closes out today. Fails EarlySubmission before 18:00 local time.
//
// First submission creates the report with SubmittedAt set; submitting an
// already-submitted date recomputes the totals (reflecting sales recorded
// since) but leaves SubmittedAt unchanged.
func (l *ReportLedger) Submit(ctx context.Context) (DailyReport, error) {
	now := l.clock.Now()
	if now.Hour() < SubmitGateHour {
		return DailyReport{}, &EarlySubmissionError{At: now, GateHour: SubmitGateHour}
	}
	date := DateOf(now)

	var report DailyReport
	err := l.store.WithTx(ctx, func(tx Store) error {
		summary, err := summarizeDay(ctx, tx, date)
		if err != nil {
			return err
		}

		existing, err := tx.GetReport(ctx, date)
		switch {
		case IsNotFound(err):
			report = DailyReport{
				ID:          ReportID(fmt.Sprintf("report-%s", date)),
				Date:        date,
				IsSubmitted: true,
				SubmittedAt: &now,
			}
		case err != nil:
			return err
		default:
			report = existing
			if !report.IsSubmitted {
				report.IsSubmitted = true
				report.SubmittedAt = &now
			}
			// Already submitted: refresh totals only, SubmittedAt stays.
		}

		report.TotalSales = summary.TotalSales
		report.TotalProfit = summary.TotalProfit
		report.TotalCost = summary.TotalCost

		return tx.UpsertReport(ctx, report)
	})
	if err != nil {
		return DailyReport{}, err
	}
	return report, nil
}

// GetReport returns the daily report for a date, or ErrNotFound.
func (l *ReportLedger) GetReport(ctx context.Context, date Date) (DailyReport, error) {
	return l.store.GetReport(ctx, date)
}

package jobs

import (
	"context"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/service"
)

const AccountantExportJob = "AccountantExport"

// AccountantExport sends last month's bank statements to the accountant.
// It is the cron entry point and never panics.
func (jr *JobRunner) AccountantExport() {
	jr.runWithRecovery(AccountantExportJob, func() {
		ctx, cancel := jr.jobContext()
		defer cancel()
		jr.RunAccountantExport(ctx)
	})
}

// RunAccountantExport exports the calendar month preceding now in the
// scheduler timezone
func (jr *JobRunner) RunAccountantExport(ctx context.Context) service.ExportResult {
	month := domain.MonthOf(jr.now().In(jr.config.Location())).Previous()
	result := jr.services.Export.RunMonthly(ctx, month, service.AutomatedOperator)

	switch result.Status {
	case service.ExportStatusFailed:
		logger.Error("Accountant export failed", "month", month.String(), "message", result.Message)
	default:
		logger.Info("Accountant export finished", "month", month.String(), "status", result.Status, "message", result.Message)
	}
	return result
}

package businessflow

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/repository"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportFlow aggregates the sales of a store
type ReportFlow interface {
	Summary(ctx context.Context, storeID uuid.UUID, startDate, endDate string) (*dto.SummaryReportResponse, error)
}

// ReportFlowImpl implements the report business flow
type ReportFlowImpl struct {
	transactionRepo repository.TransactionRepository
	location        *time.Location
	clock           clock.Clock
	logger          *zap.Logger
}

// NewReportFlow creates a new report flow instance. Dates are interpreted in loc.
func NewReportFlow(transactionRepo repository.TransactionRepository, loc *time.Location, clk clock.Clock, logger *zap.Logger) ReportFlow {
	if loc == nil {
		loc = time.UTC
	}
	if clk == nil {
		clk = clock.New()
	}
	return &ReportFlowImpl{
		transactionRepo: transactionRepo,
		location:        loc,
		clock:           clk,
		logger:          logger,
	}
}

// Summary reports revenue, transaction count and distinct customers between
// startDate and endDate. Both default to today.
func (rf *ReportFlowImpl) Summary(ctx context.Context, storeID uuid.UUID, startDate, endDate string) (*dto.SummaryReportResponse, error) {
	now := rf.clock.Now().In(rf.location)

	start, end, err := parseDateRange(startDate, endDate, rf.location)
	if err != nil {
		return nil, err
	}
	from := utils.StartOfDay(now)
	if start != nil {
		from = *start
	}
	to := utils.EndOfDay(now)
	if end != nil {
		to = *end
	}
	if from.After(to) {
		return nil, badRequest("INVALID_DATE_RANGE", "start_date must be before or equal to end_date", ErrStartDateAfterEndDate)
	}

	summary, err := rf.transactionRepo.Summary(ctx, storeID, from, to)
	if err != nil {
		return nil, internal("REPORT_SUMMARY_FAILED", "Failed to generate summary report", err)
	}

	logWith(ctx, rf.logger).Debug("Summary report generated",
		zap.String("store_id", storeID.String()),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int64("transactions", summary.Transactions))

	return &dto.SummaryReportResponse{
		Revenue:      summary.Revenue,
		Transactions: summary.Transactions,
		Customers:    summary.Customers,
		Date:         now,
	}, nil
}

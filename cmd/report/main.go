package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"legato-ledger-go/internal/common"
	"legato-ledger-go/internal/config"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// parsePeriod resolves the report window. With no flags it covers the
// previous calendar month.
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" && toStr == "" {
		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return monthStart.AddDate(0, -1, 0), monthStart, nil
	}
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from and --to must be given together")
	}

	from, err := time.ParseInLocation(dateLayout, fromStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
	}
	to, err := time.ParseInLocation(dateLayout, toStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
	}
	// End date is inclusive on the command line, exclusive internally
	return from, to.AddDate(0, 0, 1), nil
}

func main() {
	ctx := context.Background()

	fromFlag := flag.String("from", "", "Period start date, YYYY-MM-DD (default: previous month)")
	toFlag := flag.String("to", "", "Period end date, YYYY-MM-DD inclusive (default: previous month)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Logging)
	defer loggerCleanup()

	periodStart, periodEnd, err := parsePeriod(*fromFlag, *toFlag)
	if err != nil {
		zap.L().Fatal("Invalid report period", zap.Error(err))
	}

	zap.L().Info("Generating revenue report",
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	report, err := services.Ledger.GenerateRevenueReport(ctx, periodStart, periodEnd)
	if err != nil {
		zap.L().Fatal("Failed to generate report", zap.Error(err))
	}

	common.PrintHeader("REVENUE REPORT", common.DefaultWidth)
	fmt.Printf("Period:          %s to %s\n",
		report.PeriodStart.Format(dateLayout),
		report.PeriodEnd.AddDate(0, 0, -1).Format(dateLayout))
	fmt.Printf("Currency:        %s\n", report.Currency)
	fmt.Println()
	fmt.Printf("Gross revenue:   %s\n", report.TotalRevenue.String())
	fmt.Printf("Writer share:    %s\n", report.TotalWriterShare.String())
	fmt.Printf("Platform share:  %s\n", report.TotalPlatformShare.String())
	fmt.Printf("Payouts settled: %s\n", report.PayoutsTotalProcessed.String())
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Revenue report generated",
		zap.String("gross", report.TotalRevenue.String()),
		zap.String("writer_share", report.TotalWriterShare.String()),
		zap.String("platform_share", report.TotalPlatformShare.String()),
		zap.String("payouts_processed", report.PayoutsTotalProcessed.String()))
}

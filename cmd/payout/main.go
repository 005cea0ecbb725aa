package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"legato-ledger-go/internal/common"
	"legato-ledger-go/internal/config"
	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type payoutFlags struct {
	action   string
	email    string
	amount   string
	payoutId string
	external string
	method   string
	details  string
	reason   string
}

func parseFlags() *payoutFlags {
	f := &payoutFlags{}
	flag.StringVar(&f.action, "action", "summary", "Action: summary, list, create, process, fail, cancel")
	flag.StringVar(&f.email, "email", "", "Writer email (summary, list, create)")
	flag.StringVar(&f.amount, "amount", "", "Payout amount (create)")
	flag.StringVar(&f.payoutId, "payout", "", "Payout request id (process, fail, cancel)")
	flag.StringVar(&f.external, "external", "", "External payout id from the payment provider (process)")
	flag.StringVar(&f.method, "method", "bank_transfer", "Payment method (create)")
	flag.StringVar(&f.details, "details", "", "Payment details, e.g. masked account number (create)")
	flag.StringVar(&f.reason, "reason", "", "Failure reason (fail)")
	flag.Parse()
	return f
}

func resolveWriter(ctx context.Context, services *common.Services, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("--email is required for this action")
	}
	user, err := services.DbService.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role != "writer" {
		return nil, fmt.Errorf("user %s is a %s, payouts apply to writers only", email, user.Role)
	}
	return user, nil
}

func printPayout(payout *models.PayoutRequest) {
	fmt.Printf("ID:       %s\n", payout.Id)
	fmt.Printf("Writer:   %s\n", payout.WriterId)
	fmt.Printf("Amount:   %s %s\n", payout.Amount.String(), payout.Currency)
	fmt.Printf("Status:   %s\n", payout.Status)
	if payout.PaymentMethod != "" {
		fmt.Printf("Method:   %s\n", payout.PaymentMethod)
	}
	if payout.ExternalPayoutId != "" {
		fmt.Printf("External: %s\n", payout.ExternalPayoutId)
	}
	fmt.Printf("Created:  %s\n", payout.CreatedAt.Format("2006-01-02 15:04:05"))
}

func runSummary(ctx context.Context, services *common.Services, f *payoutFlags) error {
	writer, err := resolveWriter(ctx, services, f.email)
	if err != nil {
		return err
	}

	summary, err := services.Ledger.GetWriterEarningsSummary(ctx, writer.Id)
	if err != nil {
		return err
	}

	common.PrintHeader("WRITER EARNINGS SUMMARY", common.DefaultWidth)
	fmt.Printf("Writer:    %s (%s)\n", writer.Name, writer.Email)
	fmt.Printf("Currency:  %s\n", summary.Currency)
	fmt.Printf("Earned:    %s\n", summary.TotalEarnings.String())
	fmt.Printf("Paid out:  %s\n", summary.TotalPaidOut.String())
	fmt.Printf("Pending:   %s\n", summary.PendingPayout.String())
	fmt.Printf("Available: %s\n", summary.AvailableForPayout.String())
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	return nil
}

func runList(ctx context.Context, services *common.Services, f *payoutFlags) error {
	writer, err := resolveWriter(ctx, services, f.email)
	if err != nil {
		return err
	}

	payouts, err := services.DbService.GetPayoutRequestsByWriter(ctx, writer.Id)
	if err != nil {
		return err
	}

	common.PrintHeader(fmt.Sprintf("PAYOUT REQUESTS: %s", writer.Name), common.DefaultWidth)
	if len(payouts) == 0 {
		fmt.Println("No payout requests")
	}
	for i, payout := range payouts {
		symbol := common.BoxPrefix(i == len(payouts)-1)
		fmt.Printf("%s %s  %10s %s  %-9s  %s\n",
			symbol,
			payout.Id,
			payout.Amount.String(),
			payout.Currency,
			payout.Status,
			payout.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	return nil
}

func runCreate(ctx context.Context, services *common.Services, f *payoutFlags) error {
	writer, err := resolveWriter(ctx, services, f.email)
	if err != nil {
		return err
	}

	if f.amount == "" {
		return fmt.Errorf("--amount is required for create")
	}
	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	payout, err := services.Ledger.CreatePayoutRequest(ctx, writer.Id, amount, f.method, f.details)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientEarnings) {
			zap.L().Warn("Payout request rejected", zap.Error(err))
		}
		return err
	}

	common.PrintHeader("PAYOUT REQUEST CREATED", common.DefaultWidth)
	printPayout(payout)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	return nil
}

func runProcess(ctx context.Context, services *common.Services, f *payoutFlags) error {
	if f.payoutId == "" || f.external == "" {
		return fmt.Errorf("--payout and --external are required for process")
	}

	payout, err := services.Ledger.ProcessPayoutRequest(ctx, f.payoutId, f.external)
	if err != nil {
		return err
	}

	common.PrintHeader("PAYOUT COMPLETED", common.DefaultWidth)
	printPayout(payout)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	return nil
}

func runFail(ctx context.Context, services *common.Services, f *payoutFlags) error {
	if f.payoutId == "" {
		return fmt.Errorf("--payout is required for fail")
	}

	payout, err := services.Ledger.FailPayoutRequest(ctx, f.payoutId, f.reason)
	if err != nil {
		return err
	}

	common.PrintHeader("PAYOUT FAILED", common.DefaultWidth)
	printPayout(payout)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	return nil
}

func runCancel(ctx context.Context, services *common.Services, f *payoutFlags) error {
	if f.payoutId == "" {
		return fmt.Errorf("--payout is required for cancel")
	}

	payout, err := services.Ledger.CancelPayoutRequest(ctx, f.payoutId)
	if err != nil {
		return err
	}

	common.PrintHeader("PAYOUT CANCELLED", common.DefaultWidth)
	printPayout(payout)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
	return nil
}

func main() {
	ctx := context.Background()

	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Logging)
	defer loggerCleanup()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	switch f.action {
	case "summary":
		err = runSummary(ctx, services, f)
	case "list":
		err = runList(ctx, services, f)
	case "create":
		err = runCreate(ctx, services, f)
	case "process":
		err = runProcess(ctx, services, f)
	case "fail":
		err = runFail(ctx, services, f)
	case "cancel":
		err = runCancel(ctx, services, f)
	default:
		err = fmt.Errorf("unknown action %q, expected summary, list, create, process, fail, or cancel", f.action)
	}

	if err != nil {
		zap.L().Fatal("Payout command failed",
			zap.String("action", f.action),
			zap.Error(err))
	}
}

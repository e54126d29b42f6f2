package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"

	"luckybit/cmd"
	"luckybit/config"
	"luckybit/currency"
	"luckybit/database"
	"luckybit/domain/entities"
	"luckybit/domain/services"
	"luckybit/infrastructure"
	"luckybit/infrastructure/ws"
	"luckybit/repository"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Check for balance adjustment subcommands
	if len(os.Args) > 1 && os.Args[1] == "adjust-balance" {
		if err := handleBalanceAdjustment(); err != nil {
			log.Fatal("Balance adjustment error:", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: luckybit migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleBalanceAdjustment credits or debits an account from the command line,
// going through the ledger so the adjustment leaves a normal audit entry
func handleBalanceAdjustment() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: luckybit adjust-balance account-id amount currency")
	}

	accountID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}
	amount, err := decimal.NewFromString(os.Args[3])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	cur := entities.Currency(os.Args[4])
	if !cur.IsValid() {
		return fmt.Errorf("unsupported currency: %s", os.Args[4])
	}

	ctx := context.Background()
	cfg := config.Get()
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// No live clients or subscribers exist in a one-shot command
	ledger := services.NewLedgerService(
		repository.NewUnitOfWorkFactory(db),
		currency.NewRateService(),
		ws.NewHub(),
		infrastructure.NewNoopEventPublisher(),
		services.NewAccountLocks(),
	)

	metadata := map[string]any{"source": "cli", "reason": "manual_adjustment"}
	var account *entities.Account
	if amount.IsNegative() {
		account, _, err = ledger.Debit(ctx, accountID, amount.Neg(), cur, entities.EntryTypeAdminAdjustment, metadata)
	} else {
		account, _, err = ledger.Credit(ctx, accountID, amount, cur, entities.EntryTypeAdminAdjustment, metadata)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Account %d balance is now %s %s\n", account.ID, account.Balance, account.Currency)
	return nil
}

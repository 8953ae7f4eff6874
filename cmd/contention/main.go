package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/rl1809/library-ledger/internal/app"
	"github.com/rl1809/library-ledger/internal/config"
	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/core/service"
	"github.com/rl1809/library-ledger/internal/observability"
)

const totalRequests = 50

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ledger, err := app.Build(ctx, cfg, observability.NewLogger(cfg.Env))
	if err != nil {
		log.Fatalf("failed to build ledger: %v", err)
	}
	defer ledger.Close()

	book, err := ledger.Catalog.AddBook(ctx, "Contention check", "library-ledger", "contention-"+uuid.NewString())
	if err != nil {
		log.Fatalf("failed to add book: %v", err)
	}

	var (
		successCount atomic.Int32
		blockedCount atomic.Int32
		failCount    atomic.Int32
		loanID       atomic.Value
		wg           sync.WaitGroup
	)
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			loan, err := ledger.Borrowing.Borrow(ctx, fmt.Sprintf("contention-patron-%d", n), book.ID, domain.CategoryBook)
			switch {
			case err == nil:
				successCount.Add(1)
				loanID.Store(loan.ID)
			case errors.Is(err, service.ErrAlreadyBorrowed):
				blockedCount.Add(1)
			default:
				failCount.Add(1)
				log.Printf("patron %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	success, blocked, failed := successCount.Load(), blockedCount.Load(), failCount.Load()

	fmt.Println("========== CONTENTION RESULTS ==========")
	fmt.Printf("Store:            %s\n", cfg.Store)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Borrowed:         %d\n", success)
	fmt.Printf("Already Borrowed: %d\n", blocked)
	fmt.Printf("Errors:           %d\n", failed)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("========================================")

	if success == 1 && blocked == totalRequests-1 {
		fmt.Println("PASS: exactly one borrow succeeded")
	} else {
		fmt.Printf("FAIL: expected 1 borrow and %d rejections, got %d/%d\n", totalRequests-1, success, blocked)
	}

	if id, ok := loanID.Load().(string); ok {
		if err := ledger.Loans.ReturnItem(ctx, id); err != nil {
			log.Printf("failed to return loan %s: %v", id, err)
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/conf"

	klog "github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

const (
	// defaultRenewalSchedule runs the renewal sweep every day at 03:00.
	defaultRenewalSchedule = "0 0 3 * * *"
	// defaultExpiryAuditSchedule runs the expiry audit every day at 02:00.
	defaultExpiryAuditSchedule = "0 0 2 * * *"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

// RenewalApp holds the batch entry points.
type RenewalApp struct {
	renewal *biz.RenewalUsecase
}

// newLogger creates the batch logger.
func newLogger(c *conf.Bootstrap) klog.Logger {
	return klog.With(klog.NewStdLogger(os.Stdout),
		"ts", klog.DefaultTimestamp,
		"caller", klog.DefaultCaller,
		"service.name", "membership-renewal",
	)
}

func main() {
	flag.Parse()

	bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	if err := bc.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}

	app, cleanup, err := wireApp(bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	renewalSchedule := defaultRenewalSchedule
	auditSchedule := defaultExpiryAuditSchedule
	if bc.Renewal != nil {
		if bc.Renewal.Schedule != "" {
			renewalSchedule = bc.Renewal.Schedule
		}
		if bc.Renewal.ExpiryAuditSchedule != "" {
			auditSchedule = bc.Renewal.ExpiryAuditSchedule
		}
	}

	cronScheduler := cron.New(cron.WithSeconds())

	// Renewal sweep: charge or expire every due subscription.
	_, err = cronScheduler.AddFunc(renewalSchedule, func() {
		log.Println("[CRON] Starting renewal sweep...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		report, err := app.renewal.ProcessDueRenewals(ctx)
		if err != nil {
			log.Printf("[CRON] Renewal sweep error: %v", err)
			return
		}
		log.Printf("[CRON] Renewal sweep completed: due=%d renewed=%d expired=%d skipped=%d",
			report.Due, report.Renewed, report.Expired, report.Skipped)
	})
	if err != nil {
		log.Printf("Failed to add renewal sweep job: %v", err)
	}

	// Expiry audit: close token-less subscriptions that can never renew.
	_, err = cronScheduler.AddFunc(auditSchedule, func() {
		log.Println("[CRON] Starting expiry audit...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := app.renewal.ExpireStale(ctx)
		if err != nil {
			log.Printf("[CRON] Expiry audit error: %v", err)
			return
		}
		log.Printf("[CRON] Expiry audit completed: closed %d subscriptions", count)
	})
	if err != nil {
		log.Printf("Failed to add expiry audit job: %v", err)
	}

	cronScheduler.Start()
	log.Println("========================================")
	log.Println("Renewal cron jobs started")
	log.Printf("  - Renewal sweep: %s", renewalSchedule)
	log.Printf("  - Expiry audit:  %s", auditSchedule)
	log.Println("========================================")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gracefully...")

	// Let in-flight per-subscription charges finish; an aborted charge call
	// risks an untracked gateway-side charge with no local record.
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		log.Println("Cron jobs stopped gracefully")
	case <-time.After(2 * time.Minute):
		log.Println("Cron jobs forced to stop after timeout")
	}
}

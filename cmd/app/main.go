package main

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/heyheylabs/bdvoucher-core/injector"
)

// sweepInterval is how often lazily-expired vouchers are materialized as
// EXPIRED in storage.
const sweepInterval = time.Hour

func main() {
	app, err := injector.InitializeApplication()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	logrus.Info("voucher engine ready")

	for range time.Tick(sweepInterval) {
		if _, err := app.Vouchers.SweepExpired(); err != nil {
			logrus.Errorf("expired sweep failed: %v", err)
		}
	}
}

package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper closes workspaces idle for longer than maxIdle.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

func KioskReaper(s Sweeper, maxIdle time.Duration) func(context.Context) {
	return func(context.Context) {
		if n := s.Sweep(maxIdle); n > 0 {
			logrus.WithFields(logrus.Fields{"closed": n, "max_idle": maxIdle}).Info("reaped idle kiosk workspaces")
		}
	}
}

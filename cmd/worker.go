package cmd

import (
	"context"
	"log"
	"time"

	"geomancer/core/queue"
	"geomancer/feature/geomance"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerExpireEvery time.Duration

// workerCmd runs queued merge jobs.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run queued merge jobs",
	Long: `Polls the Redis queue and runs merge jobs until interrupted. Result
files older than the result TTL are removed periodically.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := a.log
		defer logg.Sync()

		svc, q, err := a.jobService(ctx)
		if err != nil {
			logg.Fatal("Failed to initialize job service", zap.Error(err))
		}

		w := queue.NewWorker(q, logg.Named("worker"), a.cfg.Queue.PollTimeout())
		w.Handle(geomance.Task, svc.Process)

		go expireLoop(ctx, svc, a.cfg.Queue.ResultTTL(), workerExpireEvery, logg)

		if err := w.Run(ctx); err != nil {
			logg.Fatal("Worker failed", zap.Error(err))
		}
	},
}

// expireLoop removes result files older than maxAge every interval.
func expireLoop(ctx context.Context, svc *geomance.Service, maxAge, interval time.Duration, logg *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ExpireResults(ctx, maxAge); err != nil {
				logg.Warn("Result expiry failed", zap.Error(err))
			}
		}
	}
}

func init() {
	workerCmd.Flags().DurationVar(&workerExpireEvery, "expire-every", 10*time.Minute, "Interval of the result expiry sweep (0 disables it)")
	RootCmd.AddCommand(workerCmd)
}

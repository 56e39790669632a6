package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// sweepLockName guards against concurrent sweeps across instances.
const sweepLockName = "sweep:expired"

// sweepResult is the output shape of the sweep command.
type sweepResult struct {
	RecordsRemoved int64  `json:"records_removed"`
	Duration       string `json:"duration"`
}

// NewSweepCmd builds the sweep command. It takes a store-wide lock so
// only one sweeper runs at a time, then removes expired records.
func NewSweepCmd() *cobra.Command {
	var lockTTL time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired search and risk records from the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			store, client, err := buildStore(cliCtx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			mutex := redis.NewMutex(client, cliCtx.Logger, sweepLockName, redis.WithMutexTTL(lockTTL))
			acquired, err := mutex.TryLock(cmd.Context())
			if err != nil {
				return err
			}
			if !acquired {
				return errors.New(errors.ErrCodeConflict, "another sweep is already running")
			}
			defer func() { _ = mutex.Unlock(cmd.Context()) }()

			start := time.Now()
			removed, err := store.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}

			cliCtx.Logger.Info("sweep completed",
				logging.Int64("records_removed", removed),
				logging.Duration("duration", time.Since(start)),
			)
			return PrintResult(cmd, sweepResult{
				RecordsRemoved: removed,
				Duration:       time.Since(start).Truncate(time.Millisecond).String(),
			})
		},
	}

	cmd.Flags().DurationVar(&lockTTL, "lock-ttl", 5*time.Minute, "sweep lock expiry")
	return cmd
}

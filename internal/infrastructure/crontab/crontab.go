package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"

	"genai-studio/chat-api/internal/domain/chat"
	"genai-studio/chat-api/internal/infrastructure/logger"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

const CronJobTimeout = 10 * time.Minute

type Crontab struct {
	ctab        *crontab.Crontab
	chatService *chat.Service
	schedule    string
}

func NewCrontab(chatService *chat.Service, schedule string) *Crontab {
	return &Crontab{
		ctab:        crontab.New(),
		chatService: chatService,
		schedule:    schedule,
	}
}

// Run executes the retention sweep once at startup, then on the configured
// schedule until the context is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	log := logger.WithComponent("crontab")

	c.runSweep()

	if err := c.ctab.AddJob(c.schedule, c.runSweep); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to schedule retention sweep")
	}
	log.Info().Str("schedule", c.schedule).Msg("retention sweep scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) runSweep() {
	jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
	defer cancel()
	c.chatService.Sweep(jobCtx)
}

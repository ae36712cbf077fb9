package jobs

import (
	"log"
	"time"

	"Showdown/metrics"
	"Showdown/middlewares"
	"Showdown/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const visitorIdleTimeout = 10 * time.Minute

// RefreshRunGauge sets the in-progress gauge from the runs table.
func RefreshRunGauge(db *gorm.DB) error {
	count, err := models.CountRunsByStatus(db, models.RunStatusInProgress)
	if err != nil {
		return err
	}
	metrics.RunsInProgress.Set(float64(count))
	return nil
}

// Start schedules the periodic housekeeping jobs. Stop the returned
// scheduler on shutdown.
func Start(db *gorm.DB, schedule string) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(schedule, func() {
		if err := RefreshRunGauge(db); err != nil {
			log.Printf("[jobs] run gauge refresh failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("@every 5m", func() {
		if removed := middlewares.PruneVisitors(visitorIdleTimeout); removed > 0 {
			log.Printf("[jobs] pruned %d idle rate limit visitors", removed)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

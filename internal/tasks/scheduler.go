package tasks

import (
	"rccafe/internal/clock"
	"rccafe/internal/models"
	"rccafe/internal/storage"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SweepMemberships settles ACTIVE memberships that ran out of sessions or time.
// Returns the number of memberships moved to COMPLETED and EXPIRED.
func SweepMemberships() (completed, expired int64) {
	res := storage.DB.Model(&models.Membership{}).
		Where("status = ? AND sessions_remaining <= 0", models.MembershipActive).
		Update("status", models.MembershipCompleted)
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("membership sweep: completing exhausted memberships")
		return 0, 0
	}
	completed = res.RowsAffected

	res = storage.DB.Model(&models.Membership{}).
		Where("status = ? AND expiry_date < ?", models.MembershipActive, clock.Now()).
		Update("status", models.MembershipExpired)
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("membership sweep: expiring lapsed memberships")
		return completed, 0
	}
	expired = res.RowsAffected

	if completed > 0 || expired > 0 {
		log.Info().Int64("completed", completed).Int64("expired", expired).Msg("membership sweep")
	}
	return completed, expired
}

// PurgeResetCodes removes password reset codes that are expired or already used.
func PurgeResetCodes() int64 {
	res := storage.DB.
		Where("expires < ? OR used = ?", clock.Now(), true).
		Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("purging reset codes")
		return 0
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("deleted", res.RowsAffected).Msg("reset codes purged")
	}
	return res.RowsAffected
}

// InitScheduler registers the background jobs and starts the cron scheduler.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc("0 */10 * * * *", func() { SweepMemberships() }); err != nil {
		log.Error().Err(err).Msg("scheduling SweepMemberships")
	}
	if _, err := c.AddFunc("0 0 3 * * *", func() { PurgeResetCodes() }); err != nil {
		log.Error().Err(err).Msg("scheduling PurgeResetCodes")
	}

	c.Start()
	log.Info().Int("jobs", len(c.Entries())).Msg("cron scheduler started")
	return c
}

package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/learnloft/api/model"
)

// CleanupExpiredPasswordResets removes reset tokens past their expiry.
// Runs hourly so dead tokens don't pile up between daily sweeps.
func (m *CronManager) CleanupExpiredPasswordResets() {
	jobName := "cleanup_password_resets"

	result := m.db.Where("expires_at < ?", time.Now()).Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean expired password resets: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleaned %d expired password reset tokens", result.RowsAffected))
}

// CleanupOldData removes expired and aged records to keep the database lean.
// Runs daily at 2 AM.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	totalCleaned := 0

	// 1. Clean up expired JWT tokens from blacklist. Tokens past their
	// expiry can never be presented again, so the row is dead weight.
	result := m.db.Where("expires_at < ?", time.Now()).Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean token blacklist: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d expired blacklisted tokens", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 2. Clean up old password reset tokens (older than 7 days)
	cutoffResets := time.Now().Add(-7 * 24 * time.Hour)
	result = m.db.Where("created_at < ?", cutoffResets).Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean password resets: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old password resets", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 3. Clean up old cron job logs (keep only last 90 days)
	cutoffLogs := time.Now().Add(-90 * 24 * time.Hour)
	result = m.db.Where("created_at < ?", cutoffLogs).Delete(&model.CronJobLog{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean cron logs: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old cron logs", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleaned up %d total records", totalCleaned))
}

// CleanupOldNotifications removes read notifications older than 90 days.
// Unread notifications are kept regardless of age.
func (m *CronManager) CleanupOldNotifications() {
	jobName := "cleanup_notifications"

	cutoff := time.Now().Add(-90 * 24 * time.Hour)
	result := m.db.Where("created_at < ? AND read = ?", cutoff, true).Delete(&model.UserNotification{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to clean old notifications: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleaned %d old notifications", result.RowsAffected))
}

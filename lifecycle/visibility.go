package lifecycle

import "github.com/crownstage/pageant-system/models"

// IsVisible: показывать ли конкурс на публичном сайте.
func IsVisible(status models.CompetitionStatus) bool {
	switch status {
	case models.StatusPublished, models.StatusLive, models.StatusActive, models.StatusCompleted:
		return true
	}
	return false
}

// IsAccessible: можно ли заходить внутрь конкурса. Опубликованный тизер
// виден, но не доступен.
func IsAccessible(status models.CompetitionStatus) bool {
	switch status {
	case models.StatusLive, models.StatusActive, models.StatusCompleted:
		return true
	}
	return false
}

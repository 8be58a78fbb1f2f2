package lifecycle

import (
	"time"

	"github.com/crownstage/pageant-system/models"
)

// Чистые решающие функции автоперехода статусов. Запись статуса принадлежит
// вызывающей стороне (сервису) и выполняется как compare-and-swap против
// статуса, по которому принималось решение. Идемпотентность следует из
// проверки текущего статуса: после перехода условие перестаёт выполняться.

// ShouldGoLive: опубликованный конкурс переходит в live, когда открылось
// окно номинаций.
func ShouldGoLive(c *models.Competition, now time.Time) bool {
	return c.Status == models.StatusPublished && reached(c.NominationStart, now)
}

// ShouldComplete: идущий конкурс завершается по наступлении даты финала.
// Конкурс без finale_date автоматически не завершается никогда.
func ShouldComplete(c *models.Competition, now time.Time) bool {
	return c.Status.IsRunning() && reached(c.FinaleDate, now)
}

package lifecycle

import "github.com/crownstage/pageant-system/models"

// Editability — результат проверки редактируемости поля.
type Editability string

const (
	Editable Editability = "editable"
	// Locked: поле нельзя менять в текущем статусе.
	Locked Editability = "locked"
	// Warn: менять можно, но только с явным подтверждением оператора.
	Warn Editability = "warn"
)

// statusClass сворачивает статусы в три класса, по которым строится таблица.
type statusClass int

const (
	classPreLaunch statusClass = iota // draft, assigned, published
	classRunning                      // live, active
	classClosed                       // completed, archive
)

func classOf(status models.CompetitionStatus) statusClass {
	switch status {
	case models.StatusLive, models.StatusActive:
		return classRunning
	case models.StatusCompleted, models.StatusArchive:
		return classClosed
	default:
		return classPreLaunch
	}
}

// Финансовые поля и окно номинаций блокируются после запуска: публичные
// обязательства хоста не должны меняться задним числом.
var lockedWhileRunning = map[string]bool{
	"prize_pool_minimum": true,
	"price_per_vote":     true,
	"nomination_start":   true,
	"nomination_end":     true,
}

// Поля, которые можно менять по ходу конкурса, но только с подтверждением.
var warnWhileRunning = map[string]bool{
	"voting_start":       true,
	"voting_end":         true,
	"finale_date":        true,
	"use_vote_bundler":   true,
	"allow_manual_votes": true,
	"number_of_winners":  true,
}

// После завершения разрешена только косметика.
var editableWhenClosed = map[string]bool{
	"description": true,
}

// FieldEditability — статическая таблица (поле, класс статуса) → Editability.
// Без состояния, безопасна для конкурентных вызовов.
func FieldEditability(field string, status models.CompetitionStatus) Editability {
	switch classOf(status) {
	case classPreLaunch:
		return Editable
	case classRunning:
		if lockedWhileRunning[field] {
			return Locked
		}
		if warnWhileRunning[field] {
			return Warn
		}
		return Editable
	default: // classClosed
		if editableWhenClosed[field] {
			return Editable
		}
		return Locked
	}
}

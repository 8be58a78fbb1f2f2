package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации: поднимаются до любой мутации, запись блокируется целиком
	ErrValidationFailed         = errors.New("validation failed")
	ErrCompetitionNameRequired  = errors.New("competition name is required")
	ErrInvalidCompetitionStatus = errors.New("invalid competition status provided")
	ErrInvalidStatusTransition  = errors.New("invalid competition status transition")
	ErrPrizePoolBelowMinimum    = errors.New("prize pool minimum is below the allowed floor")
	ErrInvalidPricePerVote      = errors.New("price per vote must be positive")
	ErrInvalidVotingRounds      = errors.New("voting rounds are overlapping or out of order")
	ErrFieldLocked              = errors.New("field cannot be changed in the current competition status")
	ErrWarnUnacknowledged       = errors.New("changing this field requires explicit confirmation")
	ErrNominatorRequired        = errors.New("nominator name and email are required for third-party nominations")
	ErrManualVotesDisabled      = errors.New("manual votes are not allowed for this competition")
	ErrCompetitionNotVotable    = errors.New("competition is not accepting votes")

	// Ошибки состояния: переход недопустим из текущего статуса, частичных
	// изменений не происходит
	ErrInvalidNomineeTransition = errors.New("invalid nominee status transition")
	ErrNomineeAlreadyConverted  = errors.New("nominee has already been converted to a contestant")
	ErrNomineeProfileIncomplete = errors.New("nominee profile is not complete")
	ErrJudgesRequired           = errors.New("at least one judge must be assigned")

	// Ошибки конфликтов
	ErrUserEmailConflict  = errors.New("email address is already in use")
	ErrJudgeEmailConflict = errors.New("judge email is already in use")
	ErrNameConflict       = errors.New("competition name already exists for this host")
	ErrJudgeAssigned      = errors.New("judge is already assigned to this competition")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrNomineeNotFound     = errors.New("nominee not found")
	ErrContestantNotFound  = errors.New("contestant not found")
	ErrJudgeNotFound       = errors.New("judge not found")
	ErrInviteNotFound      = errors.New("invite not found")

	// Генерация инвайт-токенов
	ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")
)

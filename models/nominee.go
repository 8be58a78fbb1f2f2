package models

import "time"

// NomineeStatus представляет стадии конвейера номинант → участник.
type NomineeStatus string

const (
	NomineeNew             NomineeStatus = "new"
	NomineePending         NomineeStatus = "pending"
	NomineePendingApproval NomineeStatus = "pending_approval"
	NomineeAwaitingProfile NomineeStatus = "awaiting_profile"
	NomineeProfileComplete NomineeStatus = "profile_complete"
	NomineeApproved        NomineeStatus = "approved"
	NomineeRejected        NomineeStatus = "rejected"
)

// IsTerminal: approved и rejected — конечные статусы, переходы из них запрещены.
func (s NomineeStatus) IsTerminal() bool {
	return s == NomineeApproved || s == NomineeRejected
}

// NominationSource — кто подал номинацию.
type NominationSource string

const (
	NominatedBySelf       NominationSource = "self"
	NominatedByThirdParty NominationSource = "third_party"
)

// Nominee — кандидат, предложенный в конкурс, до превращения в Contestant.
type Nominee struct {
	ID             int              `json:"id" db:"id"`
	CompetitionID  int              `json:"competition_id" db:"competition_id"`
	Status         NomineeStatus    `json:"status" db:"status"`
	NominatedBy    NominationSource `json:"nominated_by" db:"nominated_by"`
	NominatorName  *string          `json:"nominator_name,omitempty" db:"nominator_name"`
	NominatorEmail *string          `json:"nominator_email,omitempty" db:"nominator_email"`
	Name           string           `json:"name" db:"name"`
	Email          string           `json:"email" db:"email"`
	Age            *int             `json:"age,omitempty" db:"age"`
	Occupation     *string          `json:"occupation,omitempty" db:"occupation"`
	Bio            *string          `json:"bio,omitempty" db:"bio"`
	Interests      *string          `json:"interests,omitempty" db:"interests"`
	InviteToken    *string          `json:"-" db:"invite_token"`
	ClaimedAt      *time.Time       `json:"claimed_at,omitempty" db:"claimed_at"`
	ProfileDone    bool             `json:"profile_complete" db:"profile_complete"`

	// Обратная ссылка на созданного участника; ключ идемпотентности конвертации.
	ConvertedToContestantID *int `json:"converted_to_contestant_id,omitempty" db:"converted_to_contestant_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

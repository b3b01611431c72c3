package patient

import (
	"time"
)

// RoomCount is the number of fixed consultation rooms.
const RoomCount = 8

// Status tracks where a patient is in the consultation flow.
type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusInConsultation Status = "in_consultation"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// IsValid reports whether s is one of the four known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusInConsultation, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the patient should appear on the public board.
func (s Status) Active() bool {
	return s == StatusWaiting || s == StatusInConsultation
}

// ValidRoom reports whether room identifies one of the fixed consultation rooms.
func ValidRoom(room int) bool {
	return room >= 1 && room <= RoomCount
}

// Patient maps to the patients table.
type Patient struct {
	ID               int64     `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"full_name"`
	IDNumber         string    `db:"id_number" json:"id_number"`
	ConsultationRoom int       `db:"consultation_room" json:"consultation_room"`
	ArrivalTime      time.Time `db:"arrival_time" json:"arrival_time"`
	Status           Status    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PublicEntry is the redacted projection of a patient record safe for the
// unauthenticated waiting-room board. It never carries the full id_number.
type PublicEntry struct {
	IDLastThree      string `json:"id_last_three"`
	FullName         string `json:"full_name"`
	ConsultationRoom int    `json:"consultation_room"`
	Status           Status `json:"status"`
}

// PublicView projects the record into its public form. The identifier is
// reduced to its last three characters; shorter identifiers pass through
// whole, without padding. Counted in runes so multibyte identifiers are
// never split mid-character.
func (p *Patient) PublicView() PublicEntry {
	last := []rune(p.IDNumber)
	if len(last) > 3 {
		last = last[len(last)-3:]
	}
	return PublicEntry{
		IDLastThree:      string(last),
		FullName:         p.FullName,
		ConsultationRoom: p.ConsultationRoom,
		Status:           p.Status,
	}
}

package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EventPublisher receives queue change notifications. Implementations must
// not block; publish failures never fail the originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Event describes a queue change for subscribers (doctor consoles, the
// public board).
type Event struct {
	Type             string    `json:"type"`
	PatientID        int64     `json:"patient_id"`
	ConsultationRoom int       `json:"consultation_room"`
	Status           Status    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
}

const (
	EventRegistered    = "patient.registered"
	EventCalled        = "patient.called"
	EventStatusChanged = "patient.status_changed"
)

// RegisterInput carries the registration form fields. Status is not part of
// the contract: new patients always start waiting.
type RegisterInput struct {
	FullName         string     `json:"full_name"`
	IDNumber         string     `json:"id_number"`
	ConsultationRoom int        `json:"consultation_room"`
	ArrivalTime      *time.Time `json:"arrival_time,omitempty"`
}

type Service struct {
	repo              Repository
	events            EventPublisher
	logger            zerolog.Logger
	strictTransitions bool
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetEventPublisher attaches an optional publisher for queue events.
func (s *Service) SetEventPublisher(ep EventPublisher) {
	s.events = ep
}

// SetStrictTransitions toggles enforcement of the status transition table.
// Off by default: the unguarded behavior lets staff undo a cancellation or
// completion, so hardening is opt-in.
func (s *Service) SetStrictTransitions(strict bool) {
	s.strictTransitions = strict
}

// Register validates the input and appends a new waiting patient. A missing
// arrival time defaults to the instant of the call.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	fullName := strings.TrimSpace(in.FullName)
	idNumber := strings.TrimSpace(in.IDNumber)
	if fullName == "" {
		return nil, &ValidationError{Field: "full_name", Reason: "is required"}
	}
	if idNumber == "" {
		return nil, &ValidationError{Field: "id_number", Reason: "is required"}
	}
	if !ValidRoom(in.ConsultationRoom) {
		return nil, &ValidationError{
			Field:  "consultation_room",
			Reason: fmt.Sprintf("must be between 1 and %d", RoomCount),
		}
	}

	arrival := time.Now().UTC()
	if in.ArrivalTime != nil {
		arrival = in.ArrivalTime.UTC()
	}

	p := &Patient{
		FullName:         fullName,
		IDNumber:         idNumber,
		ConsultationRoom: in.ConsultationRoom,
		ArrivalTime:      arrival,
		Status:           StatusWaiting,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, EventRegistered, p)
	return p, nil
}

// callNextAttempts bounds the re-select loop when concurrent callers race
// for the same room.
const callNextAttempts = 3

// CallNext advances the earliest waiting patient in the room into
// consultation. An empty waiting set yields nil, nil.
func (s *Service) CallNext(ctx context.Context, room int) (*Patient, error) {
	if !ValidRoom(room) {
		return nil, &ValidationError{
			Field:  "consultation_room",
			Reason: fmt.Sprintf("must be between 1 and %d", RoomCount),
		}
	}

	for attempt := 0; attempt < callNextAttempts; attempt++ {
		next, err := s.repo.NextWaiting(ctx, room)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}

		claimed, err := s.repo.ClaimWaiting(ctx, next.ID)
		if err != nil {
			return nil, err
		}
		if claimed == nil {
			// Another caller took this patient between select and claim.
			continue
		}
		s.publish(ctx, EventCalled, claimed)
		return claimed, nil
	}
	return nil, nil
}

// transitions is the legal successor table applied in strict mode.
var transitions = map[Status][]Status{
	StatusWaiting:        {StatusInConsultation, StatusCancelled},
	StatusInConsultation: {StatusCompleted, StatusCancelled},
}

// UpdateStatus sets the patient's status. Unless strict transitions are
// enabled, any status may replace any other.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Patient, error) {
	if !status.IsValid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	if s.strictTransitions {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !allowedTransition(current.Status, status) {
			return nil, &ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("cannot move from %s to %s", current.Status, status),
			}
		}
	}

	p, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventStatusChanged, p)
	return p, nil
}

func allowedTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByRoom(ctx context.Context, room, limit, offset int) ([]*Patient, int, error) {
	if !ValidRoom(room) {
		return nil, 0, &ValidationError{
			Field:  "consultation_room",
			Reason: fmt.Sprintf("must be between 1 and %d", RoomCount),
		}
	}
	return s.repo.ListByRoom(ctx, room, limit, offset)
}

func (s *Service) ListWaiting(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.ListWaiting(ctx, limit, offset)
}

// PublicDisplay returns the redacted board: waiting and in-consultation
// patients only.
func (s *Service) PublicDisplay(ctx context.Context) ([]PublicEntry, error) {
	patients, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]PublicEntry, 0, len(patients))
	for _, p := range patients {
		entries = append(entries, p.PublicView())
	}
	return entries, nil
}

func (s *Service) publish(ctx context.Context, eventType string, p *Patient) {
	if s.events == nil {
		return
	}
	event := Event{
		Type:             eventType,
		PatientID:        p.ID,
		ConsultationRoom: p.ConsultationRoom,
		Status:           p.Status,
		Timestamp:        time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Int64("patient_id", p.ID).Msg("publish queue event")
	}
}

// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
service.go - Cabin Reservation Service

Reserve serializes all writers through a mutex, so the check-then-insert
window is closed in-process; InsertReservation re-checks the slot inside
its transaction as a second line of defense. Confirm is driven by payment
finalization and must be idempotent: the status-guarded UPDATE decides a
single winner, and losers observe the current state instead of failing.

Event publishing and availability broadcasts happen after the state
change commits and are best-effort: a dead broker or an empty hub never
rolls back a reservation.
*/

//nolint:staticcheck // File documentation, not package doc
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/audit"
	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/events"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
	"github.com/nazca360/nazca360/internal/models"
)

// Booking errors.
var (
	// ErrInvalidSlot means the date or start time does not name a grid slot.
	ErrInvalidSlot = errors.New("invalid reservation slot")
	// ErrPastSlot means the slot start has already passed.
	ErrPastSlot = errors.New("slot start time has passed")
	// ErrOutsideWindow means the date is beyond the advance-booking window.
	ErrOutsideWindow = errors.New("date is outside the booking window")
	// ErrSlotTaken means the requested slot has no free cabin, or the
	// requested cabin is occupied.
	ErrSlotTaken = database.ErrSlotTaken
	// ErrInvalidCabin means the cabin number is outside the site's range.
	ErrInvalidCabin = errors.New("invalid cabin number")
	// ErrAlreadyBooked means the user already holds a live reservation for
	// the slot.
	ErrAlreadyBooked = errors.New("user already has a reservation for this slot")
	// ErrInvalidTransition means the requested status change is not allowed
	// by the reservation lifecycle.
	ErrInvalidTransition = errors.New("invalid reservation status transition")
	// ErrNotFound mirrors the store's not-found error.
	ErrNotFound = database.ErrReservationNotFound
)

// Store is the persistence surface the booking service needs. Implemented
// by *database.DB.
type Store interface {
	TakenCabins(ctx context.Context, date, startTime string, now time.Time) ([]int, error)
	SlotOccupancy(ctx context.Context, date string, now time.Time) (map[string][]int, error)
	InsertReservation(ctx context.Context, res *models.Reservation, now time.Time) error
	GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ConfirmReservation(ctx context.Context, id uuid.UUID, qrCode string) (bool, error)
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, from, to string) error
	ExpireLapsedReservations(ctx context.Context, now time.Time) ([]models.Reservation, error)
	ListReservationsForUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Broadcaster pushes live updates to connected clients. Implemented by
// the websocket hub; a nil Broadcaster disables broadcasts.
type Broadcaster interface {
	BroadcastAvailability(date, startTime string, freeCabins int)
	BroadcastReservationStatus(reservationID uuid.UUID, status string)
}

// Service owns the reservation lifecycle for the site's VR cabins.
type Service struct {
	store       Store
	grid        *SlotGrid
	publisher   events.Publisher
	broadcaster Broadcaster
	auditor     *audit.Logger

	holdTTL         time.Duration
	sweepInterval   time.Duration
	amountCents     int64
	currency        string
	paymentsEnabled bool

	now func() time.Time

	// Serializes Reserve so concurrent requests for the last cabin cannot
	// both pass the availability check.
	mu sync.Mutex
}

// NewService creates the booking service from application configuration.
// publisher, broadcaster, and auditor may each be nil-equivalent
// (NoopPublisher, nil, nil); the service degrades to pure persistence.
func NewService(store Store, cfg *config.Config, publisher events.Publisher, broadcaster Broadcaster, auditor *audit.Logger) (*Service, error) {
	grid, err := NewSlotGrid(cfg.Booking)
	if err != nil {
		return nil, fmt.Errorf("invalid booking configuration: %w", err)
	}

	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}

	holdTTL := cfg.Booking.HoldTTL
	if holdTTL <= 0 {
		holdTTL = 15 * time.Minute
	}
	sweep := cfg.Booking.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}

	currency := cfg.Payments.ReservationCurrency
	if currency == "" {
		currency = "PEN"
	}

	return &Service{
		store:           store,
		grid:            grid,
		publisher:       publisher,
		broadcaster:     broadcaster,
		auditor:         auditor,
		holdTTL:         holdTTL,
		sweepInterval:   sweep,
		amountCents:     cfg.Payments.ReservationAmountCents,
		currency:        currency,
		paymentsEnabled: cfg.Payments.Enabled && cfg.PaymentProviderEnabled(),
		now:             time.Now,
	}, nil
}

// Grid returns the site's slot grid.
func (s *Service) Grid() *SlotGrid {
	return s.grid
}

// PaymentsEnabled reports whether reservations require checkout.
func (s *Service) PaymentsEnabled() bool {
	return s.paymentsEnabled
}

// SlotAvailability is one row of the availability grid for a date.
type SlotAvailability struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	FreeCabins []int  `json:"free_cabins"`
	Available  bool   `json:"available"`
}

// Availability computes the per-slot free-cabin grid for a date. Slots
// whose start has passed (today, site timezone) report as unavailable.
func (s *Service) Availability(ctx context.Context, date string) ([]SlotAvailability, error) {
	if _, err := time.ParseInLocation(DateLayout, date, s.grid.Location()); err != nil {
		return nil, ErrInvalidSlot
	}

	now := s.now()
	occupancy, err := s.store.SlotOccupancy(ctx, date, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot occupancy: %w", err)
	}

	slots := s.grid.Slots()
	out := make([]SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		row := SlotAvailability{StartTime: slot.Start, EndTime: slot.End, FreeCabins: []int{}}

		start, err := s.grid.SlotStartAt(date, slot.Start)
		if err != nil {
			return nil, err
		}
		if !start.After(now.In(s.grid.Location())) {
			out = append(out, row) // Started or past: nothing free, unavailable
			continue
		}

		taken := make(map[int]bool, len(occupancy[slot.Start]))
		for _, cabin := range occupancy[slot.Start] {
			taken[cabin] = true
		}
		for cabin := 1; cabin <= s.grid.Cabins(); cabin++ {
			if !taken[cabin] {
				row.FreeCabins = append(row.FreeCabins, cabin)
			}
		}
		row.Available = len(row.FreeCabins) > 0
		out = append(out, row)
	}

	return out, nil
}

// Reserve books a slot for a user. cabin 0 means "any": the lowest free
// cabin is assigned. When payments are enabled the reservation is created
// as pending_payment with a hold; otherwise it is confirmed immediately
// with its QR code issued.
func (s *Service) Reserve(ctx context.Context, userID uuid.UUID, date, start string, cabin int) (*models.Reservation, error) {
	now := s.now()

	if err := s.grid.CheckWindow(date, start, now); err != nil {
		return nil, err
	}
	if cabin < 0 || cabin > s.grid.Cabins() {
		return nil, ErrInvalidCabin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUserSlot(ctx, userID, date, start, now); err != nil {
		return nil, err
	}

	taken, err := s.store.TakenCabins(ctx, date, start, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check cabin availability: %w", err)
	}
	assigned, err := s.assignCabin(cabin, taken)
	if err != nil {
		return nil, err
	}

	res := &models.Reservation{
		ID:          uuid.New(),
		UserID:      userID,
		Cabin:       assigned,
		Date:        date,
		StartTime:   start,
		Status:      models.ReservationPendingPayment,
		AmountCents: s.amountCents,
		Currency:    s.currency,
	}
	res.EndTime, _ = s.grid.EndFor(start)

	if s.paymentsEnabled {
		holdExpiry := now.Add(s.holdTTL).UTC()
		res.HoldExpiresAt = &holdExpiry
	} else {
		// Free sessions skip checkout entirely.
		res.Status = models.ReservationConfirmed
		res.QRCode = models.NewQRCode(res.ID)
		res.AmountCents = 0
	}

	if err := s.store.InsertReservation(ctx, res, now); err != nil {
		return nil, err
	}

	metrics.RecordReservationTransition(res.Status)
	s.broadcastSlot(ctx, date, start)

	if res.Status == models.ReservationConfirmed {
		s.publishConfirmed(ctx, res)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastReservationStatus(res.ID, res.Status)
		}
	}

	logging.CtxInfo(ctx).
		Str("component", "booking").
		Str("reservation_id", res.ID.String()).
		Str("date", date).
		Str("start_time", start).
		Int("cabin", assigned).
		Str("status", res.Status).
		Msg("Reservation created")

	return res, nil
}

// checkUserSlot enforces one live reservation per user per slot.
func (s *Service) checkUserSlot(ctx context.Context, userID uuid.UUID, date, start string, now time.Time) error {
	existing, err := s.store.ListReservationsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check existing reservations: %w", err)
	}
	for i := range existing {
		r := &existing[i]
		if r.Date == date && r.StartTime == start && r.HoldsSlot(now) {
			return ErrAlreadyBooked
		}
	}
	return nil
}

// assignCabin picks the cabin for a reservation. requested 0 assigns the
// lowest free cabin.
func (s *Service) assignCabin(requested int, taken []int) (int, error) {
	occupied := make(map[int]bool, len(taken))
	for _, c := range taken {
		occupied[c] = true
	}

	if requested > 0 {
		if occupied[requested] {
			return 0, ErrSlotTaken
		}
		return requested, nil
	}

	for c := 1; c <= s.grid.Cabins(); c++ {
		if !occupied[c] {
			return c, nil
		}
	}
	return 0, ErrSlotTaken
}

// Confirm transitions a pending_payment reservation to confirmed and
// issues its QR code. Called by payment finalization; safe to call more
// than once for the same reservation.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	qrCode := models.NewQRCode(id)

	won, err := s.store.ConfirmReservation(ctx, id, qrCode)
	if err != nil {
		return nil, err
	}

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !won {
		// Someone else confirmed it, or the hold already lapsed.
		if res.Status == models.ReservationConfirmed {
			return res, nil
		}
		return nil, fmt.Errorf("%w: reservation is %s", ErrInvalidTransition, res.Status)
	}

	metrics.RecordReservationTransition(models.ReservationConfirmed)
	if s.auditor != nil {
		s.auditor.ReservationStatusChanged(ctx, audit.SystemActor(), id.String(),
			models.ReservationPendingPayment, models.ReservationConfirmed)
	}

	s.publishConfirmed(ctx, res)
	s.broadcastSlot(ctx, res.Date, res.StartTime)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastReservationStatus(res.ID, res.Status)
	}

	logging.CtxInfo(ctx).
		Str("component", "booking").
		Str("reservation_id", id.String()).
		Str("qr_code", qrCode).
		Msg("Reservation confirmed")

	return res, nil
}

// UpdateStatus applies a lifecycle transition requested by a user
// (cancel) or staff (completed, no_show, cancelled). The caller is
// responsible for authorization and for auditing with the real actor.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*models.Reservation, error) {
	if !models.IsValidReservationStatus(target) {
		return nil, ErrInvalidTransition
	}

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, target)
	}

	if err := s.store.UpdateReservationStatus(ctx, id, res.Status, target); err != nil {
		return nil, err
	}

	freedSlot := res.HoldsSlot(s.now())
	res.Status = target

	metrics.RecordReservationTransition(target)
	if freedSlot {
		s.broadcastSlot(ctx, res.Date, res.StartTime)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastReservationStatus(res.ID, target)
	}

	return res, nil
}

// GetReservation retrieves one reservation.
func (s *Service) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

// ListForUser retrieves a user's reservations, most recent first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	return s.store.ListReservationsForUser(ctx, userID)
}

// ExpireHolds releases lapsed pending_payment holds. Returns how many
// reservations expired.
func (s *Service) ExpireHolds(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.store.ExpireLapsedReservations(ctx, now)
	if err != nil {
		return 0, err
	}

	metrics.RecordHoldsExpired(len(expired))

	for i := range expired {
		res := &expired[i]

		if s.auditor != nil {
			s.auditor.ReservationStatusChanged(ctx, audit.SystemActor(), res.ID.String(),
				models.ReservationPendingPayment, models.ReservationExpired)
		}

		s.publishExpired(ctx, res)
		s.broadcastSlot(ctx, res.Date, res.StartTime)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastReservationStatus(res.ID, models.ReservationExpired)
		}
	}

	if len(expired) > 0 {
		logging.CtxInfo(ctx).
			Str("component", "booking").
			Int("expired", len(expired)).
			Msg("Released lapsed reservation holds")
	}

	return len(expired), nil
}

// RunHoldSweeper expires lapsed holds on the configured interval until
// context cancellation. Run under the supervisor.
func (s *Service) RunHoldSweeper(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	logging.Info().
		Str("component", "booking").
		Dur("interval", s.sweepInterval).
		Msg("Hold sweeper started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.ExpireHolds(ctx); err != nil {
				logging.CtxErr(ctx, err).
					Str("component", "booking").
					Msg("Hold sweep failed")
			}
		}
	}
}

// broadcastSlot recomputes one slot's free-cabin count and pushes it to
// connected clients.
func (s *Service) broadcastSlot(ctx context.Context, date, start string) {
	if s.broadcaster == nil {
		return
	}

	taken, err := s.store.TakenCabins(ctx, date, start, s.now())
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "booking").
			Str("date", date).
			Str("start_time", start).
			Msg("Failed to compute slot availability for broadcast")
		return
	}

	free := s.grid.Cabins() - len(taken)
	if free < 0 {
		free = 0
	}
	s.broadcaster.BroadcastAvailability(date, start, free)
}

// publishConfirmed emits reservation.confirmed, enriched with the
// recipient so the mail consumer needs no lookup.
func (s *Service) publishConfirmed(ctx context.Context, res *models.Reservation) {
	user, err := s.store.GetUserByID(ctx, res.UserID)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "booking").
			Str("reservation_id", res.ID.String()).
			Msg("Failed to load user for confirmation event")
		return
	}

	event, err := events.NewReservationConfirmed(res.UserID, events.ReservationConfirmedPayload{
		ReservationID: res.ID.String(),
		QRCode:        res.QRCode,
		Date:          res.Date,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Cabin:         res.Cabin,
		Email:         user.Email,
		Name:          user.FullName,
	})
	if err == nil {
		err = s.publisher.PublishEvent(ctx, event)
	}
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "booking").
			Str("reservation_id", res.ID.String()).
			Msg("Failed to publish reservation.confirmed")
	}
}

// publishExpired emits reservation.expired.
func (s *Service) publishExpired(ctx context.Context, res *models.Reservation) {
	user, err := s.store.GetUserByID(ctx, res.UserID)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "booking").
			Str("reservation_id", res.ID.String()).
			Msg("Failed to load user for expiry event")
		return
	}

	event, err := events.NewReservationExpired(res.UserID, events.ReservationExpiredPayload{
		ReservationID: res.ID.String(),
		Date:          res.Date,
		StartTime:     res.StartTime,
		Email:         user.Email,
		Name:          user.FullName,
	})
	if err == nil {
		err = s.publisher.PublishEvent(ctx, event)
	}
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "booking").
			Str("reservation_id", res.ID.String()).
			Msg("Failed to publish reservation.expired")
	}
}

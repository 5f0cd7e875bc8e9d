// Package batch implements bulk creation of mixed tracking records in a
// single transaction.
package batch

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/diapers"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/feedings"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/naps"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/tracking"
)

// MaxEvents caps a single batch request.
const MaxEvents = 20

type Handler struct {
	Children *children.Handler
	Feedings *feedings.Repository
	Diapers  *diapers.Repository
	Naps     *naps.Repository
	Events   *tracking.Events
}

func NewHandler(childHandler *children.Handler, f *feedings.Repository, d *diapers.Repository, n *naps.Repository, events *tracking.Events) *Handler {
	return &Handler{Children: childHandler, Feedings: f, Diapers: d, Naps: n, Events: events}
}

type request struct {
	Events []json.RawMessage `json:"events"`
}

type itemError struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

type created struct {
	Type   string `json:"type"`
	Record any    `json:"record"`
}

// sideEffect is the per-record input for tracking.Events after commit.
type sideEffect struct {
	eventType    string
	occurredAt   time.Time
	excludeNapID string
}

// payload extracts an event's record fields. Events carry them under "data";
// a flat object is accepted too.
func payload(raw json.RawMessage) json.RawMessage {
	var head struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &head); err == nil && len(head.Data) > 0 {
		return head.Data
	}
	return raw
}

// validateEvents resolves each event's type and runs its request validation,
// collecting one error per failing index.
func validateEvents(events []json.RawMessage) ([]string, []itemError) {
	types := make([]string, len(events))
	errs := []itemError{}
	for i, outer := range events {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(outer, &head); err != nil {
			errs = append(errs, itemError{Index: i, Error: "invalid event"})
			continue
		}
		types[i] = head.Type
		raw := payload(outer)
		switch head.Type {
		case tracking.EventFeeding:
			var fr feedings.Request
			if err := json.Unmarshal(raw, &fr); err != nil {
				errs = append(errs, itemError{Index: i, Type: head.Type, Error: "invalid event"})
			} else if _, _, _, _, err := fr.Validate(); err != nil {
				errs = append(errs, itemError{Index: i, Type: head.Type, Error: err.Error()})
			}
		case tracking.EventDiaper:
			var dr diapers.Request
			if err := json.Unmarshal(raw, &dr); err != nil {
				errs = append(errs, itemError{Index: i, Type: head.Type, Error: "invalid event"})
			} else if _, err := dr.Validate(); err != nil {
				errs = append(errs, itemError{Index: i, Type: head.Type, Error: err.Error()})
			}
		case tracking.EventNap:
			var nr naps.Request
			if err := json.Unmarshal(raw, &nr); err != nil {
				errs = append(errs, itemError{Index: i, Type: head.Type, Error: "invalid event"})
			} else if _, _, err := nr.Validate(); err != nil {
				errs = append(errs, itemError{Index: i, Type: head.Type, Error: err.Error()})
			}
		default:
			errs = append(errs, itemError{Index: i, Type: head.Type, Error: "type must be 'feeding', 'diaper' or 'nap'"})
		}
	}
	return types, errs
}

// Create inserts up to MaxEvents mixed events for a child atomically. Any
// invalid or failing event rolls the whole batch back and reports per-index
// errors.
func (h *Handler) Create(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if len(req.Events) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "events must not be empty")
	}
	if len(req.Events) > MaxEvents {
		return fiber.NewError(fiber.StatusBadRequest, "a batch may contain at most 20 events")
	}

	// Validate everything up front so a bad event never opens a transaction.
	types, errs := validateEvents(req.Events)
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": errs})
	}

	ctx := auth.UserContext(c)
	tx, err := h.Events.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to start batch")
	}
	defer tx.Rollback(ctx)

	out := make([]created, 0, len(req.Events))
	effects := make([]sideEffect, 0, len(req.Events))
	for i, outer := range req.Events {
		raw := payload(outer)
		switch types[i] {
		case tracking.EventFeeding:
			var fr feedings.Request
			_ = json.Unmarshal(raw, &fr)
			f, err := h.Feedings.Insert(ctx, tx, ch.ID, fr)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"errors": []itemError{{Index: i, Type: types[i], Error: err.Error()}},
				})
			}
			out = append(out, created{Type: types[i], Record: f})
			effects = append(effects, sideEffect{eventType: types[i], occurredAt: f.FedAt})
		case tracking.EventDiaper:
			var dr diapers.Request
			_ = json.Unmarshal(raw, &dr)
			d, err := h.Diapers.Insert(ctx, tx, ch.ID, dr)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"errors": []itemError{{Index: i, Type: types[i], Error: err.Error()}},
				})
			}
			out = append(out, created{Type: types[i], Record: d})
			effects = append(effects, sideEffect{eventType: types[i], occurredAt: d.ChangedAt})
		case tracking.EventNap:
			var nr naps.Request
			_ = json.Unmarshal(raw, &nr)
			n, err := h.Naps.Insert(ctx, tx, ch.ID, nr)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"errors": []itemError{{Index: i, Type: types[i], Error: err.Error()}},
				})
			}
			out = append(out, created{Type: types[i], Record: n})
			effects = append(effects, sideEffect{eventType: types[i], occurredAt: n.NappedAt, excludeNapID: n.ID})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to commit batch")
	}

	actorID, _ := auth.UserID(c)
	for _, fx := range effects {
		h.Events.RecordCreated(ctx, ch.ID, actorID, fx.eventType, fx.occurredAt, fx.excludeNapID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"created": out,
		"count":   len(out),
	})
}

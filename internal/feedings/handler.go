package feedings

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/tracking"
)

type Handler struct {
	Repo     *Repository
	Children *children.Handler
	Events   *tracking.Events
}

func NewHandler(repo *Repository, childHandler *children.Handler, events *tracking.Events) *Handler {
	return &Handler{Repo: repo, Children: childHandler, Events: events}
}

func (h *Handler) List(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	from, to := tracking.ParseRangeQuery(c.Query("from"), c.Query("to"))
	list, err := h.Repo.List(auth.UserContext(c), ch.ID, from, to, c.QueryInt("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feedings")
	}
	return c.JSON(list)
}

func (h *Handler) Create(c *fiber.Ctx) error {
	// Caregivers may add records, so view access is enough here.
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	ctx := auth.UserContext(c)
	f, err := h.Repo.Insert(ctx, nil, ch.ID, req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	actorID, _ := auth.UserID(c)
	h.Events.RecordCreated(ctx, ch.ID, actorID, tracking.EventFeeding, f.FedAt, "")

	return c.Status(fiber.StatusCreated).JSON(f)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	f, err := h.Repo.Get(auth.UserContext(c), ch.ID, c.Params("recordID"))
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "feeding not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feeding")
	}
	return c.JSON(f)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), children.CanEdit)
	if err != nil {
		return err
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	f, err := h.Repo.Update(auth.UserContext(c), ch.ID, c.Params("recordID"), req)
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "feeding not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	h.Events.RecordChanged(ch.ID)
	return c.JSON(f)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), children.CanEdit)
	if err != nil {
		return err
	}
	err = h.Repo.Delete(auth.UserContext(c), ch.ID, c.Params("recordID"))
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "feeding not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete feeding")
	}

	h.Events.RecordChanged(ch.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

package children

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/audit"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
)

var validate = validator.New()

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// notFound hides inaccessible children behind 404 so the API does not leak
// which ids exist.
func notFound() error {
	return fiber.NewError(fiber.StatusNotFound, "child not found")
}

// Authorize loads a child and verifies a minimum role. Exported for the
// tracking, analytics and batch handlers that guard nested routes.
func (h *Handler) Authorize(c *fiber.Ctx, childID string, check func(role string) bool) (*Child, error) {
	ctx := auth.UserContext(c)
	userID, err := auth.UserID(c)
	if err != nil {
		return nil, err
	}
	// A malformed id would error on the uuid cast; treat it like any other
	// missing child.
	if _, err := uuid.Parse(childID); err != nil {
		return nil, notFound()
	}
	ch, err := h.Repo.Get(ctx, childID)
	if err != nil {
		return nil, notFound()
	}
	role, err := h.Repo.UserRole(ctx, ch, userID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed role lookup")
	}
	if role == "" || (check != nil && !check(role)) {
		return nil, notFound()
	}
	annotateRole(ch, role)
	return ch, nil
}

func parseChildRequest(c *fiber.Ctx) (*ChildRequest, error) {
	var req ChildRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid child payload: "+err.Error())
	}
	if _, err := time.Parse("2006-01-02", req.DateOfBirth); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
	}
	return &req, nil
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	ctx := auth.UserContext(c)
	list, err := h.Repo.ListForUser(ctx, userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch children")
	}
	for i := range list {
		a, err := h.Repo.LastActivities(ctx, list[i].ID)
		if err == nil {
			list[i].LastFeeding = a.LastFeeding
			list[i].LastDiaperChange = a.LastDiaperChange
			list[i].LastNap = a.LastNap
		}
	}
	return c.JSON(list)
}

func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	req, err := parseChildRequest(c)
	if err != nil {
		return err
	}
	ch, err := h.Repo.Create(auth.UserContext(c), userID, *req)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create child")
	}
	annotateRole(ch, RoleOwner)

	ip := c.IP()
	_ = audit.Write(auth.UserContext(c), h.Repo.Pool, audit.Entry{
		UserID: &userID, Action: "child.create", EntityType: "child", EntityID: &ch.ID, IP: &ip,
	})

	return c.Status(fiber.StatusCreated).JSON(ch)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	ch, err := h.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	a, err := h.Repo.LastActivities(auth.UserContext(c), ch.ID)
	if err == nil {
		ch.LastFeeding = a.LastFeeding
		ch.LastDiaperChange = a.LastDiaperChange
		ch.LastNap = a.LastNap
	}
	return c.JSON(ch)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	ch, err := h.Authorize(c, c.Params("id"), CanEdit)
	if err != nil {
		return err
	}
	req, err := parseChildRequest(c)
	if err != nil {
		return err
	}
	updated, err := h.Repo.Update(auth.UserContext(c), ch.ID, *req)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update child")
	}
	annotateRole(updated, ch.UserRole)
	return c.JSON(updated)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	ch, err := h.Authorize(c, c.Params("id"), CanManageSharing)
	if err != nil {
		return err
	}
	userID, _ := auth.UserID(c)
	if err := h.Repo.Delete(auth.UserContext(c), ch.ID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete child")
	}

	ip := c.IP()
	_ = audit.Write(auth.UserContext(c), h.Repo.Pool, audit.Entry{
		UserID: &userID, Action: "child.delete", EntityType: "child", EntityID: &ch.ID, IP: &ip,
	})

	return c.SendStatus(fiber.StatusNoContent)
}

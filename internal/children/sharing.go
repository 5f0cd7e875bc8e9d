package children

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/audit"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/mail"
)

// SharingHandler serves the share and invite endpoints, all owner-only
// except invite acceptance.
type SharingHandler struct {
	Repo    *Repository
	Mailer  *mail.Service
	BaseURL string
}

func NewSharingHandler(repo *Repository, mailer *mail.Service, baseURL string) *SharingHandler {
	return &SharingHandler{Repo: repo, Mailer: mailer, BaseURL: baseURL}
}

func (h *SharingHandler) owner(c *fiber.Ctx) (*Child, error) {
	childHandler := Handler{Repo: h.Repo}
	return childHandler.Authorize(c, c.Params("id"), CanManageSharing)
}

func (h *SharingHandler) ListShares(c *fiber.Ctx) error {
	ch, err := h.owner(c)
	if err != nil {
		return err
	}
	shares, err := h.Repo.ListShares(auth.UserContext(c), ch.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch shares")
	}
	return c.JSON(shares)
}

func (h *SharingHandler) RevokeShare(c *fiber.Ctx) error {
	ch, err := h.owner(c)
	if err != nil {
		return err
	}
	err = h.Repo.RevokeShare(auth.UserContext(c), ch.ID, c.Params("shareID"))
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "share not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to revoke share")
	}

	userID, _ := auth.UserID(c)
	shareID := c.Params("shareID")
	_ = audit.Write(auth.UserContext(c), h.Repo.Pool, audit.Entry{
		UserID: &userID, Action: "share.revoke", EntityType: "child_share", EntityID: &shareID,
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SharingHandler) ListInvites(c *fiber.Ctx) error {
	ch, err := h.owner(c)
	if err != nil {
		return err
	}
	invites, err := h.Repo.ListInvites(auth.UserContext(c), ch.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch invites")
	}
	for i := range invites {
		invites[i].InviteURL = h.inviteURL(invites[i].Token)
	}
	return c.JSON(invites)
}

func (h *SharingHandler) CreateInvite(c *fiber.Ctx) error {
	ch, err := h.owner(c)
	if err != nil {
		return err
	}
	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "role must be 'co-parent' or 'caregiver'")
	}

	userID, _ := auth.UserID(c)
	inv, err := h.Repo.CreateInvite(auth.UserContext(c), ch.ID, userID, req.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create invite")
	}
	inv.InviteURL = h.inviteURL(inv.Token)

	// Email delivery is best-effort; the invite link is returned regardless.
	if req.Email != "" && h.Mailer != nil {
		go func(to, link, childName string) {
			if err := h.Mailer.SendShareInvite(to, link, childName); err != nil {
				log.Printf("invite mail to %s failed: %v", to, err)
			}
		}(req.Email, inv.InviteURL, ch.Name)
	}

	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (h *SharingHandler) ToggleInvite(c *fiber.Ctx) error {
	ch, err := h.owner(c)
	if err != nil {
		return err
	}
	inv, err := h.Repo.ToggleInvite(auth.UserContext(c), ch.ID, c.Params("inviteID"))
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "invite not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update invite")
	}
	inv.InviteURL = h.inviteURL(inv.Token)
	return c.JSON(inv)
}

func (h *SharingHandler) DeleteInvite(c *fiber.Ctx) error {
	ch, err := h.owner(c)
	if err != nil {
		return err
	}
	err = h.Repo.DeleteInvite(auth.UserContext(c), ch.ID, c.Params("inviteID"))
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusNotFound, "invite not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete invite")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AcceptInvite grants the caller access via an invite token. Accepting twice
// is idempotent: the second call returns 200 with the child, not an error.
func (h *SharingHandler) AcceptInvite(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var req AcceptInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "token required")
	}

	ctx := auth.UserContext(c)
	childID, createdBy, role, err := h.Repo.ActiveInvite(ctx, req.Token)
	if err == ErrNotFound {
		return fiber.NewError(fiber.StatusBadRequest, "invalid or inactive invite token")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve invite")
	}

	ch, err := h.Repo.Get(ctx, childID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid or inactive invite token")
	}
	if ch.ParentID == userID {
		return fiber.NewError(fiber.StatusBadRequest, "you are already the owner of this child")
	}

	created, err := h.Repo.AcceptShare(ctx, childID, userID, createdBy, role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to accept invite")
	}

	_ = audit.Write(ctx, h.Repo.Pool, audit.Entry{
		UserID: &userID, Action: "invite.accept", EntityType: "child", EntityID: &childID,
	})

	userRole, err := h.Repo.UserRole(ctx, ch, userID)
	if err == nil {
		annotateRole(ch, userRole)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(ch)
}

func (h *SharingHandler) inviteURL(token string) string {
	return h.BaseURL + "/children/accept-invite/" + token
}

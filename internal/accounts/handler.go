package accounts

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/audit"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
)

var validate = validator.New()

type Handler struct {
	Repo      *Repository
	JWTSecret []byte
}

func NewHandler(repo *Repository, jwtSecret []byte) *Handler {
	return &Handler{Repo: repo, JWTSecret: jwtSecret}
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var body SignupRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "email and password (min 8 chars) required")
	}
	if body.Timezone != "" {
		if _, err := time.LoadLocation(body.Timezone); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "timezone must be a valid IANA zone name")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	ctx := auth.UserContext(c)
	userID, err := h.Repo.Create(ctx, body.Email, string(hashed), body.FullName, body.Timezone)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
	}

	token, err := auth.GenerateToken(h.JWTSecret, userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "email and password required")
	}

	ctx := auth.UserContext(c)
	userID, hash, err := h.Repo.GetByEmail(ctx, body.Email)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := auth.GenerateToken(h.JWTSecret, userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}
	return c.JSON(AuthResponse{Token: token})
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	user, err := h.Repo.GetByID(auth.UserContext(c), userID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return c.JSON(user)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var body UpdateProfileRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if body.Timezone != nil {
		if _, err := time.LoadLocation(*body.Timezone); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "timezone must be a valid IANA zone name")
		}
	}

	user, err := h.Repo.UpdateProfile(auth.UserContext(c), userID, body.FullName, body.Timezone)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not update profile")
	}
	return c.JSON(user)
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var body ChangePasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "current and new password (min 8 chars) required")
	}

	ctx := auth.UserContext(c)
	hash, err := h.Repo.PasswordHash(ctx, userID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.CurrentPassword)); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "current password is incorrect")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
	if err := h.Repo.SetPasswordHash(ctx, userID, string(newHash)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not change password")
	}
	return c.JSON(fiber.Map{"changed": true})
}

func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	ctx := auth.UserContext(c)
	if err := h.Repo.Delete(ctx, userID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not delete account")
	}

	ip := c.IP()
	ua := c.Get("User-Agent")
	_ = audit.Write(ctx, h.Repo.Pool, audit.Entry{
		UserID:     &userID,
		Action:     "account.delete",
		EntityType: "user",
		EntityID:   &userID,
		IP:         &ip,
		UserAgent:  &ua,
	})

	return c.SendStatus(fiber.StatusNoContent)
}

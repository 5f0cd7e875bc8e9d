package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/accounts"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/admin"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/analytics"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/batch"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/diapers"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/feedings"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/naps"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/notifications"
)

type Router struct {
	Accounts      *accounts.Handler
	Children      *children.Handler
	Sharing       *children.SharingHandler
	Feedings      *feedings.Handler
	Diapers       *diapers.Handler
	Naps          *naps.Handler
	Batch         *batch.Handler
	Analytics     *analytics.Handler
	Notifications *notifications.Handler
	Admin         *admin.Handler

	AuthMW  fiber.Handler
	AdminMW fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api/v1")

	api.Post("/auth/signup", RateLimitAuth(), r.Accounts.Signup)
	api.Post("/auth/login", RateLimitAuth(), r.Accounts.Login)

	account := api.Group("/account", r.AuthMW)
	account.Get("/", r.Accounts.Profile)
	account.Patch("/", r.Accounts.UpdateProfile)
	account.Post("/change-password", r.Accounts.ChangePassword)
	account.Delete("/", r.Accounts.DeleteAccount)

	// Finished exports are fetched by token alone; no session required.
	api.Get("/exports/:token", r.Analytics.Exports.Download)

	write := RateLimitWrite()

	ch := api.Group("/children", r.AuthMW)
	ch.Get("/", r.Children.List)
	ch.Post("/", write, r.Children.Create)
	ch.Post("/accept-invite", r.Sharing.AcceptInvite)
	ch.Get("/:id", r.Children.Get)
	ch.Patch("/:id", r.Children.Update)
	ch.Delete("/:id", r.Children.Delete)

	ch.Get("/:id/shares", r.Sharing.ListShares)
	ch.Delete("/:id/shares/:shareID", r.Sharing.RevokeShare)
	ch.Get("/:id/invites", r.Sharing.ListInvites)
	ch.Post("/:id/invites", r.Sharing.CreateInvite)
	ch.Patch("/:id/invites/:inviteID", r.Sharing.ToggleInvite)
	ch.Delete("/:id/invites/:inviteID", r.Sharing.DeleteInvite)

	records := func(path string, h interface {
		List(*fiber.Ctx) error
		Create(*fiber.Ctx) error
		Get(*fiber.Ctx) error
		Update(*fiber.Ctx) error
		Delete(*fiber.Ctx) error
	}) {
		ch.Get("/:id/"+path, h.List)
		ch.Post("/:id/"+path, write, h.Create)
		ch.Get("/:id/"+path+"/:recordID", h.Get)
		ch.Patch("/:id/"+path+"/:recordID", write, h.Update)
		ch.Delete("/:id/"+path+"/:recordID", write, h.Delete)
	}
	records("feedings", r.Feedings)
	records("diapers", r.Diapers)
	records("naps", r.Naps)

	ch.Post("/:id/batch", write, r.Batch.Create)

	ch.Get("/:id/analytics/feedings", r.Analytics.FeedingTrends)
	ch.Get("/:id/analytics/diapers", r.Analytics.DiaperPatterns)
	ch.Get("/:id/analytics/sleep", r.Analytics.SleepSummary)
	ch.Get("/:id/analytics/summary/today", r.Analytics.TodaySummary)
	ch.Get("/:id/analytics/summary/weekly", r.Analytics.WeeklySummary)
	ch.Get("/:id/analytics/export.csv", r.Analytics.ExportCSV)
	ch.Post("/:id/analytics/export", write, r.Analytics.StartExport)
	ch.Get("/:id/analytics/export/:jobID", r.Analytics.ExportStatus)

	n := api.Group("/notifications", r.AuthMW)
	n.Get("/", r.Notifications.List)
	n.Get("/unread-count", r.Notifications.UnreadCount)
	n.Post("/mark-all-read", r.Notifications.MarkAllRead)
	n.Get("/preferences", r.Notifications.ListPreferences)
	n.Patch("/preferences/:childID", r.Notifications.UpdatePreference)
	n.Get("/quiet-hours", r.Notifications.GetQuietHours)
	n.Patch("/quiet-hours", r.Notifications.UpdateQuietHours)
	n.Patch("/:notificationID", r.Notifications.MarkRead)

	adm := app.Group("/api/admin", r.AdminMW)
	adm.Get("/users", r.Admin.Users)
	adm.Get("/stats", r.Admin.Stats)
}

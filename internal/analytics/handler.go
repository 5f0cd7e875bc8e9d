package analytics

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
)

type Handler struct {
	Service  *Service
	Children *children.Handler
	Exports  *Exporter
}

func NewHandler(service *Service, childHandler *children.Handler, exports *Exporter) *Handler {
	return &Handler{Service: service, Children: childHandler, Exports: exports}
}

func parseDays(c *fiber.Ctx) (int, error) {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 90 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 90")
	}
	return days, nil
}

func (h *Handler) FeedingTrends(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	days, err := parseDays(c)
	if err != nil {
		return err
	}
	out, err := h.Service.Feedings(auth.UserContext(c), ch.ID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build feeding trends")
	}
	return c.JSON(out)
}

func (h *Handler) DiaperPatterns(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	days, err := parseDays(c)
	if err != nil {
		return err
	}
	out, err := h.Service.Diapers(auth.UserContext(c), ch.ID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build diaper patterns")
	}
	return c.JSON(out)
}

func (h *Handler) SleepSummary(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	days, err := parseDays(c)
	if err != nil {
		return err
	}
	out, err := h.Service.Sleep(auth.UserContext(c), ch.ID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build sleep summary")
	}
	return c.JSON(out)
}

func (h *Handler) TodaySummary(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	out, err := h.Service.Today(auth.UserContext(c), ch.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build today summary")
	}
	return c.JSON(out)
}

func (h *Handler) WeeklySummary(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	out, err := h.Service.Weekly(auth.UserContext(c), ch.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build weekly summary")
	}
	return c.JSON(out)
}

// ExportCSV streams one row per day joining the three trends.
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	days, err := parseDays(c)
	if err != nil {
		return err
	}

	ctx := auth.UserContext(c)
	feedings, err := h.Service.Feedings(ctx, ch.ID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build export")
	}
	diapers, err := h.Service.Diapers(ctx, ch.ID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build export")
	}
	sleep, err := h.Service.Sleep(ctx, ch.ID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build export")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"date", "feedings", "bottle_feedings", "breast_feedings", "total_oz",
		"diapers", "wet", "dirty", "both", "naps", "nap_minutes",
	})
	for i := range feedings.Daily {
		f := feedings.Daily[i]
		d := diapers.Daily[i]
		s := sleep.Daily[i]
		_ = w.Write([]string{
			f.Date,
			strconv.Itoa(f.TotalCount),
			strconv.Itoa(f.BottleCount),
			strconv.Itoa(f.BreastCount),
			strconv.FormatFloat(float64(f.TotalTenthsOz)/10, 'f', 1, 64),
			strconv.Itoa(d.Total),
			strconv.Itoa(d.Wet),
			strconv.Itoa(d.Dirty),
			strconv.Itoa(d.Both),
			strconv.Itoa(s.NapCount),
			strconv.Itoa(s.TotalMin),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to write export")
	}

	filename := "activity-" + ch.ID[:8] + "-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

// StartExport queues an async PDF export job for the child.
func (h *Handler) StartExport(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	days, err := parseDays(c)
	if err != nil {
		return err
	}

	userID, _ := auth.UserID(c)
	job, err := h.Exports.Enqueue(auth.UserContext(c), ch, userID, days)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to queue export")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// ExportStatus reports an export job's state and, once done, its download URL.
func (h *Handler) ExportStatus(c *fiber.Ctx) error {
	ch, err := h.Children.Authorize(c, c.Params("id"), nil)
	if err != nil {
		return err
	}
	job, err := h.Exports.Job(auth.UserContext(c), ch.ID, c.Params("jobID"))
	if err == ErrJobNotFound {
		return fiber.NewError(fiber.StatusNotFound, "export job not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch export job")
	}

	resp := fiber.Map{"job_id": job.ID, "status": job.Status}
	switch {
	case job.Expired(time.Now()):
		resp["status"] = JobExpired
	case job.Status == JobDone:
		resp["download_url"] = h.Exports.DownloadURL(job)
		resp["expires_at"] = job.ExpiresAt
	case job.Status == JobFailed:
		resp["error"] = "export failed"
	}
	return c.JSON(resp)
}

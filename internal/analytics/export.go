package analytics

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phpdave11/gofpdf"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
)

const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"

	// JobExpired is never stored; a done job reads as expired once its
	// download window has passed.
	JobExpired = "expired"

	downloadTTL = 24 * time.Hour
)

var ErrJobNotFound = errors.New("export job not found")

type ExportJob struct {
	ID        string     `json:"id"`
	ChildID   string     `json:"child_id"`
	UserID    string     `json:"-"`
	Days      int        `json:"days"`
	Status    string     `json:"status"`
	Token     string     `json:"-"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether a finished job's download window has passed.
func (j *ExportJob) Expired(now time.Time) bool {
	return j.Status == JobDone && j.ExpiresAt != nil && now.After(*j.ExpiresAt)
}

// Exporter builds PDF activity reports off the request path. Jobs are queued
// on a channel and drained by a single worker goroutine.
type Exporter struct {
	Pool    *pgxpool.Pool
	Service *Service
	Dir     string
	BaseURL string

	jobs chan queued
}

type queued struct {
	jobID     string
	childID   string
	childName string
	days      int
}

func NewExporter(pool *pgxpool.Pool, service *Service, dir, baseURL string) *Exporter {
	return &Exporter{
		Pool:    pool,
		Service: service,
		Dir:     dir,
		BaseURL: baseURL,
		jobs:    make(chan queued, 64),
	}
}

// Start launches the worker. It exits when ctx is cancelled.
func (e *Exporter) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case q := <-e.jobs:
				e.run(ctx, q)
			}
		}
	}()
}

func newDownloadToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (e *Exporter) Enqueue(ctx context.Context, ch *children.Child, userID string, days int) (*ExportJob, error) {
	job := &ExportJob{ChildID: ch.ID, UserID: userID, Days: days, Status: JobPending, Token: newDownloadToken()}
	err := e.Pool.QueryRow(ctx,
		`INSERT INTO export_jobs (child_id, user_id, days, status, token)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5)
		 RETURNING id, created_at`,
		ch.ID, userID, days, JobPending, job.Token).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return nil, err
	}

	select {
	case e.jobs <- queued{jobID: job.ID, childID: ch.ID, childName: ch.Name, days: days}:
	default:
		// Queue full. Leave the job pending so a retry can pick it up.
		log.Printf("export queue full, job %s left pending", job.ID)
	}
	return job, nil
}

func (e *Exporter) Job(ctx context.Context, childID, jobID string) (*ExportJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, ErrJobNotFound
	}
	var job ExportJob
	err := e.Pool.QueryRow(ctx,
		`SELECT id, child_id, user_id, days, status, token, expires_at, created_at
		 FROM export_jobs WHERE id = $1::uuid AND child_id = $2::uuid`,
		jobID, childID).Scan(
		&job.ID, &job.ChildID, &job.UserID, &job.Days, &job.Status, &job.Token, &job.ExpiresAt, &job.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (e *Exporter) DownloadURL(job *ExportJob) string {
	return e.BaseURL + "/api/v1/exports/" + job.Token
}

func (e *Exporter) filePath(token string) string {
	return filepath.Join(e.Dir, token+".pdf")
}

func (e *Exporter) setStatus(ctx context.Context, jobID, status string) {
	_, err := e.Pool.Exec(ctx, `UPDATE export_jobs SET status = $2 WHERE id = $1::uuid`, jobID, status)
	if err != nil {
		log.Printf("export job %s: status update failed: %v", jobID, err)
	}
}

func (e *Exporter) run(ctx context.Context, q queued) {
	e.setStatus(ctx, q.jobID, JobRunning)

	var token string
	if err := e.Pool.QueryRow(ctx, `SELECT token FROM export_jobs WHERE id = $1::uuid`, q.jobID).Scan(&token); err != nil {
		log.Printf("export job %s: %v", q.jobID, err)
		e.setStatus(ctx, q.jobID, JobFailed)
		return
	}

	if err := e.buildPDF(ctx, q, e.filePath(token)); err != nil {
		log.Printf("export job %s: pdf build failed: %v", q.jobID, err)
		e.setStatus(ctx, q.jobID, JobFailed)
		return
	}

	expires := time.Now().UTC().Add(downloadTTL)
	_, err := e.Pool.Exec(ctx,
		`UPDATE export_jobs SET status = $2, expires_at = $3 WHERE id = $1::uuid`,
		q.jobID, JobDone, expires)
	if err != nil {
		log.Printf("export job %s: finalize failed: %v", q.jobID, err)
	}
}

func (e *Exporter) buildPDF(ctx context.Context, q queued, path string) error {
	feedings, err := e.Service.Feedings(ctx, q.childID, q.days)
	if err != nil {
		return err
	}
	diapers, err := e.Service.Diapers(ctx, q.childID, q.days)
	if err != nil {
		return err
	}
	sleep, err := e.Service.Sleep(ctx, q.childID, q.days)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Activity Report: "+q.childName)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Last "+strconv.Itoa(q.days)+" days, generated "+time.Now().UTC().Format("2006-01-02"))
	pdf.Ln(10)

	header := func(title string, cols []string, widths []float64) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(20, 20, 20)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(245, 245, 245)
		for i, col := range cols {
			align := "C"
			last := i == len(cols)-1
			br := 0
			if last {
				br = 1
			}
			pdf.CellFormat(widths[i], 7, col, "1", br, align, true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 30, 30)
	}
	row := func(cells []string, widths []float64) {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		for i, cell := range cells {
			br := 0
			if i == len(cells)-1 {
				br = 1
			}
			pdf.CellFormat(widths[i], 7, cell, "1", br, "C", false, 0, "")
		}
	}
	summaryLine := func(s Summary) {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, 7,
			"avg/day "+strconv.FormatFloat(s.AvgPerDay, 'f', 2, 64)+
				", trend "+s.Trend+
				", variance "+strconv.FormatFloat(s.Variance, 'f', 2, 64),
			"", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	fw := []float64{34, 30, 30, 30, 30}
	header("Feedings", []string{"DATE", "TOTAL", "BOTTLE", "BREAST", "OZ"}, fw)
	for _, d := range feedings.Daily {
		row([]string{
			d.Date,
			strconv.Itoa(d.TotalCount),
			strconv.Itoa(d.BottleCount),
			strconv.Itoa(d.BreastCount),
			strconv.FormatFloat(float64(d.TotalTenthsOz)/10, 'f', 1, 64),
		}, fw)
	}
	summaryLine(feedings.Summary)

	dw := []float64{34, 30, 30, 30, 30}
	header("Diaper Changes", []string{"DATE", "TOTAL", "WET", "DIRTY", "BOTH"}, dw)
	for _, d := range diapers.Daily {
		row([]string{
			d.Date,
			strconv.Itoa(d.Total),
			strconv.Itoa(d.Wet),
			strconv.Itoa(d.Dirty),
			strconv.Itoa(d.Both),
		}, dw)
	}
	summaryLine(diapers.Summary)

	sw := []float64{44, 40, 40}
	header("Naps", []string{"DATE", "NAPS", "MINUTES"}, sw)
	for _, d := range sleep.Daily {
		row([]string{
			d.Date,
			strconv.Itoa(d.NapCount),
			strconv.Itoa(d.TotalMin),
		}, sw)
	}
	summaryLine(sleep.Summary)

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated "+time.Now().UTC().Format(time.RFC3339), "", 0, "C", false, 0, "")

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// Download serves a finished export by token. The token is the only
// credential, so expiry is enforced strictly.
func (e *Exporter) Download(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return fiber.NewError(fiber.StatusNotFound, "export not found")
	}

	var status string
	var expiresAt *time.Time
	var childID string
	err := e.Pool.QueryRow(c.UserContext(),
		`SELECT status, expires_at, child_id FROM export_jobs WHERE token = $1`,
		token).Scan(&status, &expiresAt, &childID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fiber.NewError(fiber.StatusNotFound, "export not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch export")
	}
	if status != JobDone || expiresAt == nil || time.Now().After(*expiresAt) {
		return fiber.NewError(fiber.StatusNotFound, "export not found")
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="activity-report.pdf"`)
	return c.SendFile(e.filePath(token))
}

package nutrition

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/validation"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUploadBytes = 8 * 1024 * 1024

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": true, "message": message})
}

// writeError maps package errors onto HTTP statuses.
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case isInputError(err):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrTaskNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrInvalidModelResponse):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrUpstreamUnavailable):
		status = fiber.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// Client went away.
		status = 499
	}
	return errorJSON(c, status, publicMessage(err))
}

// requestContext carries the request's Sentry hub into service calls.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		ctx = sentry.SetHubOnContext(ctx, hub)
	}
	return ctx
}

// =============================================================================
// AnalysisHandler
// =============================================================================

type AnalysisHandler struct {
	pipeline *Pipeline
	tasks    *TaskRegistry
}

func NewAnalysisHandler(pipeline *Pipeline, tasks *TaskRegistry) *AnalysisHandler {
	return &AnalysisHandler{pipeline: pipeline, tasks: tasks}
}

func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	req, err := parseAnalyzeBody(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	outcome, err := h.pipeline.Run(requestContext(c), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(outcome)
}

func (h *AnalysisHandler) AnalyzeUpload(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	req, err := parseAnalyzeUpload(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	outcome, err := h.pipeline.Run(requestContext(c), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(outcome)
}

// StartTask queues an analysis and returns immediately with its task id.
func (h *AnalysisHandler) StartTask(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	req, err := parseAnalyzeBody(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if _, err := ParseMealSlot(string(req.MealSlot)); err != nil {
		return writeError(c, err)
	}

	id := h.tasks.Start(userID, req)
	return c.Status(fiber.StatusAccepted).JSON(TaskCreatedResponse{TaskID: id, Status: TaskPending})
}

func (h *AnalysisHandler) GetTask(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	snap, err := h.tasks.Get(userID, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(snap)
}

func (h *AnalysisHandler) CancelTask(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	snap, err := h.tasks.Cancel(userID, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(snap)
}

func parseAnalyzeBody(c *fiber.Ctx) (AnalyzeRequest, error) {
	var body AnalyzeImageRequest
	if err := c.BodyParser(&body); err != nil {
		return AnalyzeRequest{}, errors.New("invalid request body")
	}
	if err := validation.Struct(body); err != nil {
		return AnalyzeRequest{}, err
	}

	img, err := decodeImageData(body.ImageData, body.MimeType)
	if err != nil {
		return AnalyzeRequest{}, err
	}

	req := AnalyzeRequest{
		Image:    img,
		MealSlot: MealSlot(body.MealSlot),
		Persist:  body.Persist == nil || *body.Persist,
	}
	if body.ImageURL != "" {
		u := body.ImageURL
		req.ImageURL = &u
	}
	if body.EatenAt != nil {
		req.EatenAt = *body.EatenAt
	}
	return req, nil
}

func parseAnalyzeUpload(c *fiber.Ctx) (AnalyzeRequest, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return AnalyzeRequest{}, errors.New("image file is required")
	}
	if file.Size > maxUploadBytes {
		return AnalyzeRequest{}, errors.New("image too large, maximum 8MB")
	}

	f, err := file.Open()
	if err != nil {
		return AnalyzeRequest{}, errors.New("failed to read image")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return AnalyzeRequest{}, errors.New("failed to read image data")
	}

	mime := c.FormValue("mime_type")
	if mime == "" {
		mime = file.Header.Get("Content-Type")
	}

	req := AnalyzeRequest{
		Image:    Image{Data: data, MimeType: mime},
		MealSlot: MealSlot(c.FormValue("meal_slot")),
		Persist:  true,
	}
	if v := c.FormValue("persist"); v != "" {
		persist, err := strconv.ParseBool(v)
		if err != nil {
			return AnalyzeRequest{}, errors.New("persist must be a boolean")
		}
		req.Persist = persist
	}
	if v := c.FormValue("image_url"); v != "" {
		req.ImageURL = &v
	}
	if v := c.FormValue("eaten_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return AnalyzeRequest{}, errors.New("eaten_at must be an RFC 3339 timestamp")
		}
		req.EatenAt = t
	}
	return req, nil
}

// decodeImageData accepts raw base64 or a data:<mime>;base64,<data> URL. The
// URL's MIME type is used when mimeType is empty.
func decodeImageData(data, mimeType string) (Image, error) {
	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return Image{}, errors.New("image_data must be a base64 data URL")
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		data = payload
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return Image{}, errors.New("image_data must be valid base64")
	}
	return Image{Data: decoded, MimeType: mimeType}, nil
}

// =============================================================================
// EntryHandler
// =============================================================================

type EntryHandler struct {
	entries     *EntryService
	summaries   *SummaryService
	recentLimit int
}

func NewEntryHandler(entries *EntryService, summaries *SummaryService, recentLimit int) *EntryHandler {
	return &EntryHandler{entries: entries, summaries: summaries, recentLimit: recentLimit}
}

// Create saves an analysis the client already holds.
func (h *EntryHandler) Create(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	var body CreateEntryRequest
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	in := SaveEntryInput{
		UserID:   userID,
		Analysis: body.Analysis,
		MealSlot: MealSlot(body.MealSlot),
	}
	if body.ImageURL != "" {
		in.ImageURL = &body.ImageURL
	}
	if body.EatenAt != nil {
		in.EatenAt = *body.EatenAt
	}

	entry, err := h.entries.Save(requestContext(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *EntryHandler) List(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	date := c.Query("date", h.entries.Today())
	entries, err := h.entries.EntriesByDate(c.UserContext(), userID, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(EntryListResponse{Date: date, Data: entries})
}

func (h *EntryHandler) GetByID(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}
	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid entry ID")
	}

	entry, err := h.entries.Entry(c.UserContext(), userID, entryID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entry)
}

func (h *EntryHandler) Delete(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}
	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid entry ID")
	}

	if err := h.entries.Delete(c.UserContext(), userID, entryID); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return writeError(c, err)
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete food entry")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *EntryHandler) Today(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	summary, err := h.summaries.Today(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(Dashboard(summary))
}

// Summary serves ?date=D or ?start=D&end=D. No parameters means today.
func (h *EntryHandler) Summary(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	start, end := c.Query("start"), c.Query("end")
	if date := c.Query("date"); date != "" {
		start, end = date, date
	}
	if start == "" && end == "" {
		today := h.entries.Today()
		start, end = today, today
	}
	if start == "" || end == "" {
		return errorJSON(c, fiber.StatusBadRequest, "start and end are both required")
	}

	summaries, err := h.summaries.Range(c.UserContext(), userID, start, end)
	if err != nil {
		return writeError(c, err)
	}

	views := make([]DashboardView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, Dashboard(s))
	}
	return c.JSON(SummaryListResponse{Start: start, End: end, Data: views})
}

func (h *EntryHandler) Calendar(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	now := time.Now().In(h.entries.Location())
	year := c.QueryInt("year", now.Year())
	month := c.QueryInt("month", int(now.Month()))
	if month < 1 || month > 12 || year < 1970 || year > 9999 {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid year or month")
	}

	start, end := CalendarBounds(year, time.Month(month))
	summaries, err := h.summaries.Range(c.UserContext(), userID, start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(CalendarMonth(year, time.Month(month), summaries, h.entries.Today()))
}

func (h *EntryHandler) Recent(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user ID")
	}

	limit := c.QueryInt("limit", h.recentLimit)
	if limit < 1 {
		limit = h.recentLimit
	}
	if limit > 50 {
		limit = 50
	}

	entries, err := h.entries.RecentToday(c.UserContext(), userID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(RecentEntriesResponse{
		Date: h.entries.Today(),
		Data: RecentEntries(entries, time.Now(), h.entries.Location()),
	})
}

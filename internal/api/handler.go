package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/fakeyudi/timerdeck/internal/engine"
	"github.com/fakeyudi/timerdeck/internal/export"
	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// Handler holds the request handlers.
type Handler struct {
	engine *engine.Engine
	log    *log.Logger
}

type createTimerRequest struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Duration     json.RawMessage `json:"duration"` // seconds, or a string like "1m30s"
	HalfwayAlert bool            `json:"halfwayAlert"`
}

type categoryView struct {
	Name     string `json:"name"`
	Expanded bool   `json:"expanded"`
	Timers   int    `json:"timers"`
}

func writeError(c *gin.Context, apiErr *APIError) {
	if apiErr == nil {
		apiErr = internal("")
	}
	c.JSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// fromEngine maps engine and validation errors onto API errors.
func fromEngine(err error) *APIError {
	var verr *timer.ValidationError
	switch {
	case errors.As(err, &verr):
		return badRequest("invalid_timer", verr.Error())
	case errors.Is(err, engine.ErrNotFound):
		return notFound("timer_not_found", err.Error())
	case errors.Is(err, engine.ErrUnknownCategory):
		return notFound("category_not_found", err.Error())
	case errors.Is(err, timer.ErrUnknownOp):
		return badRequest("invalid_op", err.Error())
	case errors.Is(err, export.ErrUnknownFormat):
		return badRequest("invalid_format", err.Error())
	}
	return internal(err.Error())
}

func parseDurationField(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, &timer.ValidationError{Field: "duration", Reason: "is required"}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &timer.ValidationError{Field: "duration", Reason: "must be a number or string"}
		}
		return timer.ParseDuration(s)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, &timer.ValidationError{Field: "duration", Reason: "must be a whole number of seconds"}
	}
	return n, nil
}

func (h *Handler) ListTimers(c *gin.Context) {
	st := h.engine.State()
	timers := timer.Filter(st.Timers, c.Query("category"))
	if timers == nil {
		timers = []timer.Timer{}
	}
	c.JSON(http.StatusOK, gin.H{"timers": timers})
}

func (h *Handler) CreateTimer(c *gin.Context) {
	var req createTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}
	d, err := parseDurationField(req.Duration)
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	t, err := h.engine.AddTimer(timer.Input{
		Name:         req.Name,
		Category:     req.Category,
		Duration:     d,
		HalfwayAlert: req.HalfwayAlert,
	})
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timer": t})
}

func (h *Handler) RemoveTimer(c *gin.Context) {
	if err := h.engine.Remove(c.Param("id")); err != nil {
		writeError(c, fromEngine(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) TimerOp(c *gin.Context) {
	id := c.Param("id")
	op, err := timer.ParseOp(c.Param("op"))
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	switch op {
	case timer.OpStart:
		err = h.engine.Start(id)
	case timer.OpPause:
		err = h.engine.Pause(id)
	case timer.OpReset:
		err = h.engine.Reset(id)
	}
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	t, _ := h.engine.State().Find(id)
	c.JSON(http.StatusOK, gin.H{"timer": t})
}

func (h *Handler) ListCategories(c *gin.Context) {
	st := h.engine.State()
	out := []categoryView{}
	for _, name := range timer.Categories(st.Timers) {
		out = append(out, categoryView{
			Name:     name,
			Expanded: st.Expanded(name),
			Timers:   len(timer.Filter(st.Timers, name)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// CategoryOp handles toggle as well as the bulk start, pause and reset.
func (h *Handler) CategoryOp(c *gin.Context) {
	name := c.Param("name")
	if c.Param("op") == "toggle" {
		expanded := h.engine.ToggleCategory(name)
		c.JSON(http.StatusOK, gin.H{"category": name, "expanded": expanded})
		return
	}
	op, err := timer.ParseOp(c.Param("op"))
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	if err := h.engine.Bulk(name, op); err != nil {
		writeError(c, fromEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"timers": timer.Filter(h.engine.State().Timers, name)})
}

func (h *Handler) GetHistory(c *gin.Context) {
	history := h.engine.State().History
	if history == nil {
		history = []timer.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *Handler) ClearHistory(c *gin.Context) {
	h.engine.ClearHistory()
	c.Status(http.StatusNoContent)
}

func (h *Handler) ExportHistory(c *gin.Context) {
	f, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	r, err := export.RendererFor(f)
	if err != nil {
		writeError(c, fromEngine(err))
		return
	}
	data, err := r.Render(h.engine.State().History)
	if err != nil {
		h.log.Error("rendering export failed", "err", err)
		writeError(c, internal(""))
		return
	}
	contentType := "application/json"
	if f == export.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(h.engine.Now(), f)))
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	pending := h.engine.Notifications().Pending()
	if pending == nil {
		pending = []notify.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": pending})
}

func (h *Handler) AckNotification(c *gin.Context) {
	n, ok := h.engine.Notifications().Ack()
	if !ok {
		writeError(c, notFound("no_notification", "no pending notification"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n, "message": n.Message()})
}

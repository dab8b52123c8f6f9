// Submission HTTP handlers.
//
// This file exposes the form collector endpoints:
//   - POST /submit  (accept one name/email pair, JSON or form-encoded)
//   - GET  /data    (list all submissions, weak ETag support)
//
// Handlers are transport-thin: they bind input, call the intake service, and
// hand every error to respondError.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-collector/internal/domain"
)

// IntakeService accepts and lists submissions.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IntakeService interface {
	// Submit validates (depending on mode) and stores one submission.
	Submit(ctx context.Context, name, email string) (*domain.Submission, error)
	// List returns all submissions in the store's order.
	List(ctx context.Context) ([]domain.Submission, error)
	// Stats returns the submission count and newest time.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// Handlers groups the HTTP endpoints of the form collector.
type Handlers struct {
	intake IntakeService
}

// New constructs a Handlers instance bound to the given service.
func New(intake IntakeService) *Handlers {
	return &Handlers{intake: intake}
}

//
// DTOs
//

// SubmitRequest is the /submit payload. Both fields are plain strings; any
// validation happens in the intake service.
type SubmitRequest struct {
	Name  string `json:"name" form:"name" example:"Ada"`
	Email string `json:"email" form:"email" example:"ada@example.com"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	Message string `json:"message" example:"Submission received"`
}

//
// Handlers
//

// Submit godoc
// @ID          submit
// @Summary     Submit the form
// @Description Accepts a name/email pair as JSON or form data. In strict mode the name is trimmed and HTML-escaped and the email is validated and normalized.
// @Tags        Submissions
// @Accept      json,x-www-form-urlencoded
// @Produce     json
//
// @Param       body  body  handlers.SubmitRequest  true  "Submission"
//
// @Success     200  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ValidationErrorResponse  "Validation failed"
// @Failure     429  {string}  string                            "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse            "Internal error"
// @Router      /submit [post]
func (h *Handlers) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	if _, err := h.intake.Submit(c.Request.Context(), req.Name, req.Email); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, SubmitResponse{Message: "Submission received"})
}

// Data godoc
// @ID          listSubmissions
// @Summary     List submissions
// @Description Returns every stored submission. The in-memory store lists oldest first; database stores list newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Submissions
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"submissions:3:1700000000000000000\")
//
// @Success     200  {array}   domain.Submission
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /data [get]
func (h *Handlers) Data(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, latest, err := h.intake.Stats(ctx); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"submissions:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.intake.List(ctx)
	if err != nil {
		c.Writer.Header().Del("ETag")
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

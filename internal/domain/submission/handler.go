package submission

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medform/medform/internal/domain/forms"
	"github.com/medform/medform/internal/platform/blobstore"
	"github.com/medform/medform/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/submissions", h.List)
	api.GET("/submissions/unread-count", h.UnreadCount)
	api.GET("/submissions/:id", h.Get)
	api.DELETE("/submissions/:id", h.Delete)
}

// RegisterPublicRoutes mounts the unauthenticated intake endpoints.
func (h *Handler) RegisterPublicRoutes(public *echo.Group) {
	public.POST("/forms/:slug/submissions", h.Submit)
	public.GET("/forms/:slug/success", h.Success)
}

// Submit accepts a multipart form: patient_name / patient_email /
// patient_phone values, a responses value holding the field answers as
// JSON keyed by field ID, and one file part per file field named by
// its field ID.
func (h *Handler) Submit(c echo.Context) error {
	in := SubmitInput{
		PatientName:  c.FormValue("patient_name"),
		PatientEmail: c.FormValue("patient_email"),
		PatientPhone: c.FormValue("patient_phone"),
		IPAddress:    c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
	}

	if raw := c.FormValue("responses"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Answers); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed responses")
		}
	}

	if mf, err := c.MultipartForm(); err == nil && mf != nil {
		for name, headers := range mf.File {
			fieldID, err := uuid.Parse(name)
			if err != nil {
				continue
			}
			for _, fh := range headers {
				fh := fh
				in.Files = append(in.Files, StagedFile{
					FieldID:     fieldID,
					FileName:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Size:        fh.Size,
					Open: func() (io.ReadCloser, error) {
						return fh.Open()
					},
				})
			}
		}
	}

	sub, err := h.svc.Submit(c.Request().Context(), c.Param("slug"), in)
	if err != nil {
		return submitError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":           sub.ID,
		"submitted_at": sub.SubmittedAt,
	})
}

func (h *Handler) Success(c echo.Context) error {
	view, err := h.svc.Success(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return submitError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) List(c echo.Context) error {
	var filter ListFilter
	if raw := c.QueryParam("form_id"); raw != "" {
		formID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid form_id")
		}
		filter.FormID = &formID
	}
	filter.Unread = c.QueryParam("unread") == "true"

	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.GetAndMarkRead(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "submission not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "submission not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	n, err := h.svc.CountUnread(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": n})
}

func submitError(err error) error {
	var missing *MissingRequiredFieldError
	var violation *RuleViolationError
	switch {
	case errors.Is(err, forms.ErrFormNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "form not found")
	case errors.Is(err, ErrMissingPatientInfo),
		errors.As(err, &missing),
		errors.As(err, &violation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, blobstore.ErrFileTooLarge),
		errors.Is(err, blobstore.ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

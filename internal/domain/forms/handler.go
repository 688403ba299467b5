package forms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medform/medform/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/field-types", h.ListFieldTypes)

	api.POST("/forms", h.CreateForm)
	api.GET("/forms", h.ListForms)
	api.GET("/forms/:id", h.GetForm)
	api.PUT("/forms/:id", h.UpdateForm)
	api.PATCH("/forms/:id/active", h.SetActive)
	api.DELETE("/forms/:id", h.DeleteForm)

	api.POST("/forms/:id/fields", h.AddField)
	api.PATCH("/forms/:id/fields/:index", h.UpdateField)
	api.DELETE("/forms/:id/fields/:index", h.DeleteField)
	api.POST("/forms/:id/fields/:index/move", h.MoveField)
	api.POST("/forms/:id/fields/:index/duplicate", h.DuplicateField)
	api.POST("/forms/:id/fields/:index/options", h.AddOption)
	api.DELETE("/forms/:id/fields/:index/options/:option", h.RemoveOption)
}

// RegisterPublicRoutes mounts the unauthenticated renderer endpoint.
func (h *Handler) RegisterPublicRoutes(public *echo.Group) {
	public.GET("/forms/:slug", h.GetPublicForm)
}

func (h *Handler) ListFieldTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.FieldTypes())
}

type formRequest struct {
	FormSettings
	Fields []*FormField `json:"fields"`
}

func (h *Handler) CreateForm(c echo.Context) error {
	var req formRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form, err := h.svc.CreateForm(c.Request().Context(), req.FormSettings, req.Fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, form)
}

func (h *Handler) ListForms(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListForms(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	form, err := h.svc.GetForm(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) UpdateForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req formRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form, err := h.svc.UpdateForm(c.Request().Context(), id, req.FormSettings, req.Fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetActive(c.Request().Context(), id, req.IsActive); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteForm(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddField(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Type string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form, err := h.svc.AddField(c.Request().Context(), id, req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) UpdateField(c echo.Context) error {
	id, index, err := formAndIndex(c)
	if err != nil {
		return err
	}
	var patch FieldPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form, err := h.svc.UpdateField(c.Request().Context(), id, index, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) MoveField(c echo.Context) error {
	id, index, err := formAndIndex(c)
	if err != nil {
		return err
	}
	var req struct {
		To int `json:"to"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	form, err := h.svc.MoveField(c.Request().Context(), id, index, req.To)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) DeleteField(c echo.Context) error {
	id, index, err := formAndIndex(c)
	if err != nil {
		return err
	}
	form, err := h.svc.DeleteField(c.Request().Context(), id, index)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) DuplicateField(c echo.Context) error {
	id, index, err := formAndIndex(c)
	if err != nil {
		return err
	}
	form, err := h.svc.DuplicateField(c.Request().Context(), id, index)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) AddOption(c echo.Context) error {
	id, index, err := formAndIndex(c)
	if err != nil {
		return err
	}
	form, err := h.svc.AddOption(c.Request().Context(), id, index)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) RemoveOption(c echo.Context) error {
	id, index, err := formAndIndex(c)
	if err != nil {
		return err
	}
	option, err := strconv.Atoi(c.Param("option"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid option index")
	}
	form, err := h.svc.RemoveOption(c.Request().Context(), id, index, option)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) GetPublicForm(c echo.Context) error {
	form, err := h.svc.GetPublicForm(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, publicView(form))
}

// publicView strips owner-only attributes from a form before it is
// served to an anonymous visitor.
func publicView(form *Form) map[string]interface{} {
	return map[string]interface{}{
		"title":                      form.Title,
		"description":                form.Description,
		"slug":                       form.Slug,
		"requires_patient_info":      form.RequiresPatientInfo,
		"allow_multiple_submissions": form.AllowMultiple,
		"fields":                     form.Fields,
	}
}

func formAndIndex(c echo.Context) (uuid.UUID, int, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return uuid.Nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid field index")
	}
	return id, index, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrFormNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "form not found")
	case errors.Is(err, ErrSlugTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidSlug):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrIndexOutOfRange),
		errors.Is(err, ErrUnknownFieldType),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrNoFields),
		errors.Is(err, ErrMinOptions):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

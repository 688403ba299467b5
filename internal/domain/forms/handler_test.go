package forms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *mockFormRepo) {
	svc, repo := newTestService()
	return NewHandler(svc), repo
}

func doJSON(h echo.HandlerFunc, method, target, body string, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, h(c)
}

func TestListFieldTypesHandler(t *testing.T) {
	h, _ := newTestHandler()
	rec, err := doJSON(h.ListFieldTypes, http.MethodGet, "/field-types", "", nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var types []FieldTypeDefinition
	if err := json.Unmarshal(rec.Body.Bytes(), &types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != 10 {
		t.Errorf("catalog size = %d, want 10", len(types))
	}
}

func TestCreateFormHandler(t *testing.T) {
	h, repo := newTestHandler()
	body := `{"title":"Intake","fields":[{"type":"text","label":"Name"}]}`
	rec, err := doJSON(h.CreateForm, http.MethodPost, "/forms", body, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(repo.forms) != 1 {
		t.Errorf("stored forms = %d, want 1", len(repo.forms))
	}
}

func TestCreateFormHandlerValidation(t *testing.T) {
	h, _ := newTestHandler()
	_, err := doJSON(h.CreateForm, http.MethodPost, "/forms", `{"title":"","fields":[]}`, nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestGetFormHandlerNotFound(t *testing.T) {
	h, _ := newTestHandler()
	_, err := doJSON(h.GetForm, http.MethodGet, "/forms/x", "",
		map[string]string{"id": "2c7f1c8e-9f1d-4e62-bd41-111111111111"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestGetFormHandlerBadID(t *testing.T) {
	h, _ := newTestHandler()
	_, err := doJSON(h.GetForm, http.MethodGet, "/forms/x", "", map[string]string{"id": "nope"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestMoveFieldHandlerOutOfRange(t *testing.T) {
	h, repo := newTestHandler()
	rec, err := doJSON(h.CreateForm, http.MethodPost, "/forms",
		`{"title":"Intake","fields":[{"type":"text","label":"Name"}]}`, nil)
	if err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("create: err=%v status=%d", err, rec.Code)
	}
	var id string
	for k := range repo.forms {
		id = k.String()
	}

	_, err = doJSON(h.MoveField, http.MethodPost, "/move", `{"to":9}`,
		map[string]string{"id": id, "index": "0"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestPublicFormHandlerHidesOwner(t *testing.T) {
	h, repo := newTestHandler()
	rec, err := doJSON(h.CreateForm, http.MethodPost, "/forms",
		`{"title":"Intake","fields":[{"type":"text","label":"Name"}]}`, nil)
	if err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("create: err=%v status=%d", err, rec.Code)
	}
	var slug string
	for _, f := range repo.forms {
		slug = f.Slug
	}

	rec, err = doJSON(h.GetPublicForm, http.MethodGet, "/forms/"+slug, "",
		map[string]string{"slug": slug})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var view map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, present := view["doctor_id"]; present {
		t.Error("public view leaks doctor_id")
	}
	if view["title"] != "Intake" {
		t.Errorf("title = %v", view["title"])
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/internal/domain"
	"github.com/stagepass/stagepass/pkg/emailbuilder"
	"github.com/stagepass/stagepass/pkg/logger"
)

type stubTemplateService struct {
	templates map[string]*domain.Template // keyed by org/id

	createErr error
	updateErr error
	sendErr   error

	sentTo string
}

func newStubTemplateService() *stubTemplateService {
	return &stubTemplateService{templates: make(map[string]*domain.Template)}
}

func (s *stubTemplateService) key(orgID, id string) string { return orgID + "/" + id }

func (s *stubTemplateService) CreateTemplate(_ context.Context, orgID string, t *domain.Template) error {
	if s.createErr != nil {
		return s.createErr
	}
	t.Email.Compile()
	s.templates[s.key(orgID, t.ID)] = t
	return nil
}

func (s *stubTemplateService) GetTemplateByID(_ context.Context, orgID string, id string, _ int64) (*domain.Template, error) {
	t, ok := s.templates[s.key(orgID, id)]
	if !ok {
		return nil, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	return t, nil
}

func (s *stubTemplateService) GetTemplates(_ context.Context, orgID string, category string) ([]*domain.Template, error) {
	var out []*domain.Template
	for key, t := range s.templates {
		if !strings.HasPrefix(key, orgID+"/") {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *stubTemplateService) UpdateTemplate(_ context.Context, orgID string, t *domain.Template) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.templates[s.key(orgID, t.ID)]; !ok {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	s.templates[s.key(orgID, t.ID)] = t
	return nil
}

func (s *stubTemplateService) DeleteTemplate(_ context.Context, orgID string, id string) error {
	if _, ok := s.templates[s.key(orgID, id)]; !ok {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	delete(s.templates, s.key(orgID, id))
	return nil
}

func (s *stubTemplateService) CompileTemplate(_ context.Context, payload domain.CompileTemplateRequest) (*domain.CompileTemplateResponse, error) {
	if err := payload.Document.Validate(); err != nil {
		return nil, err
	}
	return &domain.CompileTemplateResponse{HTML: emailbuilder.RenderDocument(payload.Document)}, nil
}

func (s *stubTemplateService) TestSend(_ context.Context, req domain.TestSendRequest) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	if _, ok := s.templates[s.key(req.OrganizationID, req.ID)]; !ok {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	s.sentTo = req.To
	return nil
}

func newTestServer(svc domain.TemplateService) *http.ServeMux {
	mux := http.NewServeMux()
	NewTemplateHandler(svc, logger.NewLogger("disabled")).RegisterRoutes(mux)
	return mux
}

func seedTemplate(t *testing.T, svc *stubTemplateService) *domain.Template {
	t.Helper()
	tmpl := &domain.Template{
		ID:       "welcome",
		Name:     "Welcome",
		Version:  1,
		Category: string(domain.TemplateCategorySystem),
		Email: &domain.EmailTemplate{
			Subject:  "Welcome aboard",
			Document: emailbuilder.NewDocument(),
		},
	}
	require.NoError(t, svc.CreateTemplate(context.Background(), "org1", tmpl))
	return tmpl
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTemplateHandler_List(t *testing.T) {
	svc := newStubTemplateService()
	seedTemplate(t, svc)
	mux := newTestServer(svc)

	t.Run("lists templates", func(t *testing.T) {
		rec := get(mux, "/api/templates.list?organization_id=org1")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Templates []*domain.Template `json:"templates"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Templates, 1)
	})

	t.Run("missing organization_id", func(t *testing.T) {
		rec := get(mux, "/api/templates.list")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.list", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestTemplateHandler_Get(t *testing.T) {
	svc := newStubTemplateService()
	seedTemplate(t, svc)
	mux := newTestServer(svc)

	t.Run("found", func(t *testing.T) {
		rec := get(mux, "/api/templates.get?organization_id=org1&id=welcome")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"welcome"`)
	})

	t.Run("not found", func(t *testing.T) {
		rec := get(mux, "/api/templates.get?organization_id=org1&id=missing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing id", func(t *testing.T) {
		rec := get(mux, "/api/templates.get?organization_id=org1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTemplateHandler_Create(t *testing.T) {
	t.Run("creates a template", func(t *testing.T) {
		svc := newStubTemplateService()
		mux := newTestServer(svc)

		rec := postJSON(t, mux, "/api/templates.create", domain.CreateTemplateRequest{
			OrganizationID: "org1",
			ID:             "receipt",
			Name:           "Receipt",
			Category:       string(domain.TemplateCategoryTicketing),
			Email: &domain.EmailTemplate{
				Subject:  "Your receipt",
				Document: emailbuilder.NewDocument(),
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, svc.templates, "org1/receipt")
	})

	t.Run("invalid body", func(t *testing.T) {
		mux := newTestServer(newStubTemplateService())
		req := httptest.NewRequest(http.MethodPost, "/api/templates.create", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid category", func(t *testing.T) {
		mux := newTestServer(newStubTemplateService())
		rec := postJSON(t, mux, "/api/templates.create", domain.CreateTemplateRequest{
			OrganizationID: "org1",
			ID:             "receipt",
			Name:           "Receipt",
			Category:       "bogus",
			Email: &domain.EmailTemplate{
				Subject:  "Your receipt",
				Document: emailbuilder.NewDocument(),
			},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service failure", func(t *testing.T) {
		svc := newStubTemplateService()
		svc.createErr = errors.New("db down")
		mux := newTestServer(svc)

		rec := postJSON(t, mux, "/api/templates.create", domain.CreateTemplateRequest{
			OrganizationID: "org1",
			ID:             "receipt",
			Name:           "Receipt",
			Category:       string(domain.TemplateCategoryTicketing),
			Email: &domain.EmailTemplate{
				Subject:  "Your receipt",
				Document: emailbuilder.NewDocument(),
			},
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestTemplateHandler_Update(t *testing.T) {
	svc := newStubTemplateService()
	seedTemplate(t, svc)
	mux := newTestServer(svc)

	t.Run("updates", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.update", domain.UpdateTemplateRequest{
			OrganizationID: "org1",
			ID:             "welcome",
			Name:           "Welcome v2",
			Category:       string(domain.TemplateCategorySystem),
			Email: &domain.EmailTemplate{
				Subject:  "Welcome again",
				Document: emailbuilder.NewDocument(),
			},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome v2", svc.templates["org1/welcome"].Name)
	})

	t.Run("not found", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.update", domain.UpdateTemplateRequest{
			OrganizationID: "org1",
			ID:             "missing",
			Name:           "Nope",
			Category:       string(domain.TemplateCategorySystem),
			Email: &domain.EmailTemplate{
				Subject:  "Nope",
				Document: emailbuilder.NewDocument(),
			},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTemplateHandler_Delete(t *testing.T) {
	svc := newStubTemplateService()
	seedTemplate(t, svc)
	mux := newTestServer(svc)

	rec := postJSON(t, mux, "/api/templates.delete", domain.DeleteTemplateRequest{
		OrganizationID: "org1",
		ID:             "welcome",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.templates)

	rec = postJSON(t, mux, "/api/templates.delete", domain.DeleteTemplateRequest{
		OrganizationID: "org1",
		ID:             "welcome",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateHandler_Compile(t *testing.T) {
	mux := newTestServer(newStubTemplateService())

	t.Run("compiles a document", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.compile", domain.CompileTemplateRequest{
			Document: emailbuilder.NewDocument(),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.CompileTemplateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.HTML, "<!doctype html>")
	})

	t.Run("invalid document", func(t *testing.T) {
		doc := emailbuilder.NewDocument()
		doc.Blocks = append(doc.Blocks, emailbuilder.NewBlock(emailbuilder.BlockFooter))
		rec := postJSON(t, mux, "/api/templates.compile", domain.CompileTemplateRequest{Document: doc})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTemplateHandler_Preview(t *testing.T) {
	svc := newStubTemplateService()
	seedTemplate(t, svc)
	mux := newTestServer(svc)

	t.Run("returns html", func(t *testing.T) {
		rec := get(mux, "/api/templates.preview?organization_id=org1&id=welcome")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<!doctype html>")
	})

	t.Run("not found", func(t *testing.T) {
		rec := get(mux, "/api/templates.preview?organization_id=org1&id=missing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTemplateHandler_TestSend(t *testing.T) {
	svc := newStubTemplateService()
	seedTemplate(t, svc)
	mux := newTestServer(svc)

	t.Run("sends", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.testSend", domain.TestSendRequest{
			OrganizationID: "org1",
			ID:             "welcome",
			To:             "me@example.com",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "me@example.com", svc.sentTo)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.testSend", domain.TestSendRequest{
			OrganizationID: "org1",
			ID:             "welcome",
			To:             "not-an-email",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown template", func(t *testing.T) {
		rec := postJSON(t, mux, "/api/templates.testSend", domain.TestSendRequest{
			OrganizationID: "org1",
			ID:             "missing",
			To:             "me@example.com",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

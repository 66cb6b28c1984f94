package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/roster/types"
	"go.uber.org/zap"
)

const (
	maxMultipartMemory = 32 << 20
	maxJSONBodyBytes   = 1 << 20
	formFieldName      = "name"
	formFieldEmail     = "email"
	formFieldPhoto     = "photo"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// UserService is the service surface used by the user routes.
type UserService interface {
	Ingest(ctx context.Context, sub types.Submission) types.IngestResult
	List(ctx context.Context) []types.User
}

// UserHandler provides HTTP handlers for users.
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: users, logger: logger}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users UserService, logger *zap.Logger) {
	handler := NewUserHandler(users, logger)

	r.Get("/", handler.Index)
	r.Get("/users", handler.ListUsers)
	r.Post("/add", handler.AddUser)
}

type indexPage struct {
	Users []types.User
}

// Index renders the user listing page.
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	users := h.users.List(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexPage{Users: users}); err != nil {
		h.logger.Error("render index failed", zap.Error(err))
	}
}

// ListUsers writes every user as JSON, newest first.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.users.List(r.Context()))
}

// AddUser ingests a submitted user. Ingestion failures are reported in the
// body with status 200; only an unreadable request body yields 400.
func (h *UserHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	sub, cleanup, err := parseSubmission(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.IngestResult{
			Success: false,
			Message: "invalid request body: " + err.Error(),
		})
		return
	}
	defer cleanup()

	writeJSON(w, http.StatusOK, h.users.Ingest(r.Context(), sub))
}

type jsonSubmission struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// parseSubmission reads name, email and an optional photo from a multipart,
// urlencoded or JSON body. Absent fields stay nil.
func parseSubmission(w http.ResponseWriter, r *http.Request) (types.Submission, func(), error) {
	noop := func() {}

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		var body jsonSubmission
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&body); err != nil {
			return types.Submission{}, noop, err
		}
		return types.Submission{Name: body.Name, Email: body.Email}, noop, nil
	}

	err := r.ParseMultipartForm(maxMultipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return types.Submission{}, noop, err
	}

	sub := types.Submission{
		Name:  postFormValue(r, formFieldName),
		Email: postFormValue(r, formFieldEmail),
	}
	if r.MultipartForm == nil {
		return sub, noop, nil
	}

	form := r.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	files := form.File[formFieldPhoto]
	if len(files) == 0 {
		return sub, cleanup, nil
	}
	header := files[0]
	file, err := header.Open()
	if err != nil {
		cleanup()
		return types.Submission{}, noop, err
	}
	sub.Photo = &types.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}
	return sub, func() {
		_ = file.Close()
		cleanup()
	}, nil
}

func postFormValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

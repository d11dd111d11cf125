package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/secondbrain/internal/ctxkeys"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/service"
)

type ContentHandler struct {
	contentService *service.ContentService
}

func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

type contentResponse struct {
	Content *model.Content `json:"content"`
}

type accessInfo struct {
	IsOwner  bool `json:"isOwner"`
	IsShared bool `json:"isShared"`
}

type contentDetailResponse struct {
	Content *model.Content `json:"content"`
	Access  accessInfo     `json:"access"`
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	viewerID := ctxkeys.UserID(r.Context())

	in, err := listInput(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, err := h.contentService.List(r.Context(), viewerID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}

	for i, item := range page.Items {
		page.Items[i] = viewFor(viewerID, item)
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type  model.ContentType `json:"type"`
		Link  *string           `json:"link"`
		Title string            `json:"title"`
		Tags  []string          `json:"tags"`
	}
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	content, err := h.contentService.Create(r.Context(), ctxkeys.UserID(r.Context()), service.CreateContentInput{
		Type:  body.Type,
		Link:  body.Link,
		Title: body.Title,
		Tags:  body.Tags,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, contentResponse{Content: content})
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID := ctxkeys.UserID(r.Context())

	content, err := h.contentService.ByID(r.Context(), viewerID, r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contentDetailResponse{
		Content: viewFor(viewerID, content),
		Access: accessInfo{
			IsOwner:  content.OwnedBy(viewerID),
			IsShared: content.Shared,
		},
	})
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type   *model.ContentType `json:"type"`
		Link   *string            `json:"link"`
		Title  *string            `json:"title"`
		Tags   *[]string          `json:"tags"`
		Shared *bool              `json:"shared"`
	}
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	content, err := h.contentService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.UpdateContentInput{
		Type:   body.Type,
		Link:   body.Link,
		Title:  body.Title,
		Tags:   body.Tags,
		Shared: body.Shared,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contentResponse{Content: content})
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.contentService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "content deleted"})
}

func (h *ContentHandler) Share(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Shared *bool `json:"shared"`
	}
	err := decodeJSON(w, r, &body)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if body.Shared == nil {
		handleError(w, r, &service.ValidationError{Field: "shared", Message: "shared must be a boolean"})
		return
	}

	content, err := h.contentService.SetShared(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), *body.Shared)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contentResponse{Content: content})
}

func (h *ContentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)

	err := r.ParseMultipartForm(maxMultipartBody)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handleError(w, r, &service.ValidationError{Field: "file", Message: "file too large: maximum size is 10 MB"})
			return
		}
		handleError(w, r, &service.ValidationError{Field: "file", Message: "expected a multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, &service.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	uploaded, err := h.contentService.AttachDocument(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), file, header)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*model.File{"file": uploaded})
}

func (h *ContentHandler) DocumentURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.contentService.DocumentURL(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// listInput reads scope, type, tags, shared and page from the query string.
// Tags may be repeated or comma separated.
func listInput(r *http.Request) (service.ListContentInput, error) {
	q := r.URL.Query()

	in := service.ListContentInput{
		Scope: model.ContentScope(q.Get("scope")),
		Type:  model.ContentType(q.Get("type")),
	}

	for _, v := range q["tags"] {
		in.Tags = append(in.Tags, strings.Split(v, ",")...)
	}

	if v := q.Get("shared"); v != "" {
		shared, err := strconv.ParseBool(v)
		if err != nil {
			return in, &service.ValidationError{Field: "shared", Message: "shared must be true or false"}
		}
		in.Shared = &shared
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return in, &service.ValidationError{Field: "page", Message: "page must be a number"}
		}
		in.Page = page
	}

	return in, nil
}

// viewFor hides the owner id from everyone but the owner.
func viewFor(viewerID string, c *model.Content) *model.Content {
	if c.OwnedBy(viewerID) {
		return c
	}
	view := *c
	view.OwnerID = ""
	return &view
}

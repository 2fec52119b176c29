package server

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dasmlab/ailocalize/pkg/cms"
	"github.com/dasmlab/ailocalize/pkg/service"
)

// documentHandler serves the host's own document API.
type documentHandler struct {
	config cms.Config
	store  cms.Store
	logger *logrus.Logger
}

type documentBody struct {
	Doc cms.Document `json:"doc"`
}

// locale returns the ?locale= query value, defaulting to the host default.
func (h *documentHandler) locale(r *http.Request) string {
	if loc := r.URL.Query().Get("locale"); loc != "" {
		return loc
	}
	if h.config.Localization != nil {
		return h.config.Localization.DefaultLocale
	}
	return ""
}

func (h *documentHandler) create(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	var data map[string]any
	if err := decodeBody(r, &data); err != nil {
		writeError(w, h.logger, err)
		return
	}

	loc := h.locale(r)
	id, err := h.store.Create(r.Context(), collection, loc, data)
	if err != nil {
		writeError(w, h.logger, h.storeError(err, collection))
		return
	}
	h.respond(w, r, http.StatusCreated, collection, id, loc)
}

func (h *documentHandler) find(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, r.PathValue("collection"), r.PathValue("id"), h.locale(r))
}

func (h *documentHandler) update(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	var data map[string]any
	if err := decodeBody(r, &data); err != nil {
		writeError(w, h.logger, err)
		return
	}

	loc := h.locale(r)
	if err := h.store.Update(r.Context(), collection, id, loc, data); err != nil {
		writeError(w, h.logger, h.storeError(err, collection))
		return
	}
	h.respond(w, r, http.StatusOK, collection, id, loc)
}

func (h *documentHandler) respond(w http.ResponseWriter, r *http.Request, code int, collection, id, loc string) {
	doc, err := h.store.FindByID(r.Context(), collection, id, loc)
	if err != nil {
		writeError(w, h.logger, h.storeError(err, collection))
		return
	}
	if doc == nil {
		writeError(w, h.logger, status.Error(codes.NotFound, "Document not found"))
		return
	}
	h.logger.WithFields(logrus.Fields{
		"request_id": service.RequestID(r.Context()),
		"collection": collection,
		"doc_id":     doc.ID(),
		"locale":     loc,
	}).Debug("Serving document")
	writeJSON(w, h.logger, code, documentBody{Doc: doc})
}

func (h *documentHandler) storeError(err error, collection string) error {
	switch {
	case errors.Is(err, cms.ErrNotFound):
		return status.Error(codes.NotFound, "Document not found")
	case errors.Is(err, cms.ErrUnknownCollection):
		return status.Errorf(codes.NotFound, "Collection '%s' not found", collection)
	default:
		h.logger.WithError(err).WithField("collection", collection).Error("Document store failure")
		return status.Error(codes.Internal, err.Error())
	}
}

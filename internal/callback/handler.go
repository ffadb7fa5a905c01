// Package callback receives vendor notifications about remote file state
// changes and triggers the matching retrieval.
package callback

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/translation-connector/internal/bigword"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
	"github.com/nhle/translation-connector/internal/sync"
)

// Provider bundles the vendor client and retriever of one provider
// configuration.
type Provider struct {
	API       bigword.API
	Retriever *sync.Retriever
}

// Handler dispatches inbound vendor notifications to the owning job's
// retrieval.
type Handler struct {
	mappings  store.MappingStore
	jobs      store.JobStore
	providers map[string]Provider
}

// NewHandler creates a callback handler over the given stores and
// providers, keyed by provider id.
func NewHandler(mappings store.MappingStore, jobs store.JobStore, providers map[string]Provider) *Handler {
	return &Handler{
		mappings:  mappings,
		jobs:      jobs,
		providers: providers,
	}
}

// Register attaches the callback routes to a gin engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST(model.CallbackPath, h.callback)
	r.GET("/no-preview", h.noPreview)
}

// callback handles a notification of a change in a file's state. The
// vendor has sent the state as FileState or CmsState depending on its API
// generation; either satisfies the parameter check, but retrieval always
// runs against the state re-read from the vendor, which is authoritative.
func (h *Handler) callback(c *gin.Context) {
	projectID := param(c, "ProjectId")
	fileID := param(c, "FileId")
	state := param(c, "FileState")
	if state == "" {
		state = param(c, "CmsState")
	}

	if projectID == "" || fileID == "" || state == "" {
		c.String(http.StatusBadRequest, "Bad request.")
		return
	}

	mappings, err := h.mappings.ListMappings(c.Request.Context(), store.MappingFilter{
		ProjectID: &projectID,
	})
	if err != nil {
		c.String(http.StatusInternalServerError, "Lookup failed.")
		return
	}
	if len(mappings) == 0 {
		log.Printf("callback: project %s not found", projectID)
		c.String(http.StatusNotFound, fmt.Sprintf("Project %s not found", projectID))
		return
	}

	var owner *store.RemoteMapping
	for i := range mappings {
		if _, ok := mappings[i].HasFile(fileID); ok {
			owner = &mappings[i]
			break
		}
	}
	if owner == nil {
		log.Printf("callback: file %s not found in project %s", fileID, projectID)
		c.String(http.StatusNotFound, fmt.Sprintf("File %s not found", fileID))
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), owner.JobID)
	if err != nil {
		c.String(http.StatusNotFound, fmt.Sprintf("Job %s not found", owner.JobID))
		return
	}

	provider, ok := h.providers[job.ProviderID]
	if !ok {
		c.String(http.StatusNotFound, fmt.Sprintf("Provider %s not found", job.ProviderID))
		return
	}

	info, err := provider.API.FileInfo(c.Request.Context(), fileID)
	if err != nil {
		log.Printf("callback: reading file info of %s: %v", fileID, err)
		c.String(http.StatusBadGateway, "Vendor lookup failed.")
		return
	}

	if _, err := provider.Retriever.FetchTranslatedFiles(
		c.Request.Context(), job.ID, info.FileState,
	); err != nil {
		log.Printf("callback: retrieving %s files for job %s: %v", info.FileState, job.ID, err)
		c.String(http.StatusInternalServerError, "Retrieval failed.")
		return
	}

	c.Status(http.StatusOK)
}

// noPreview serves the page reference files point at when an item has no
// preview of its own.
func (h *Handler) noPreview(c *gin.Context) {
	c.String(http.StatusOK, "No preview url available for this file.")
}

// param reads a request parameter from the form body or the query string.
func param(c *gin.Context, name string) string {
	if v := c.PostForm(name); v != "" {
		return v
	}
	return c.Query(name)
}

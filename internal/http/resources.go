package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"studyhive-backend-go/internal/authz"
	"studyhive-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

// CreateResource accepts multipart form data (required for type=file)
// or a plain JSON body for link and note resources.
func (s *Server) CreateResource(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.ResourceUpload, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can upload resources")
		return
	}

	input := services.ResourceInput{}
	var upload *services.BlobRef
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := s.formFile(r)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		input.Title = r.FormValue("title")
		input.Type = r.FormValue("type")
		if value := strings.TrimSpace(r.FormValue("description")); value != "" {
			input.Description = &value
		}
		if value := strings.TrimSpace(r.FormValue("linkUrl")); value != "" {
			input.LinkURL = &value
		}
		if file != nil {
			defer func() { _ = file.Close() }()
			ref, err := s.Blobs.Save(services.BucketResources, header.Header.Get("Content-Type"), header.Filename, CurrentUserID(r), file)
			if err != nil {
				WriteServiceError(w, err)
				return
			}
			upload = &ref
		}
	} else {
		var req struct {
			Title       string  `json:"title"`
			Description *string `json:"description"`
			Type        string  `json:"type"`
			LinkURL     *string `json:"linkUrl"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		input.Title = req.Title
		input.Description = req.Description
		input.Type = req.Type
		input.LinkURL = req.LinkURL
	}
	if strings.TrimSpace(input.Title) == "" {
		WriteError(w, http.StatusBadRequest, "Resource title is required")
		return
	}
	if upload != nil {
		input.FileURL = &upload.URL
		input.FileAssetID = &upload.ID
	}

	resource, err := services.CreateResource(s.DB, group.ID, CurrentUserID(r), input)
	if err != nil {
		// The blob is already on disk; remove it when the record fails.
		if upload != nil {
			_ = s.Blobs.Delete(upload.ID)
		}
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, "Resource created successfully", map[string]any{
		"resourceId": resource.ID,
		"title":      resource.Title,
		"type":       resource.Type,
		"fileUrl":    resource.FileURL,
		"linkUrl":    resource.LinkURL,
	})
}

func (s *Server) GroupResources(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.ResourceView, rel) {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	items, err := services.ResourcesByGroup(s.DB, group.ID, r.URL.Query().Get("type"), r.URL.Query().Get("sortBy"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Group resources", map[string]any{
		"resources": items,
		"count":     len(items),
	})
}

func (s *Server) DeleteResource(w http.ResponseWriter, r *http.Request) {
	resource, err := services.ResourceByID(s.DB, chi.URLParam(r, "resourceId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	membership, err := services.GroupMembership(s.DB, resource.GroupID, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rel := authz.Rel{Membership: membership, CreatorID: resource.UploadedBy}
	if !authz.Can(actor(r), authz.ResourceDelete, rel) {
		WriteError(w, http.StatusForbidden, "Only the uploader or an admin can delete this resource")
		return
	}
	if err := services.DeleteResource(s.DB, s.Blobs, resource); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Resource deleted successfully")
}

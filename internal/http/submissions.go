package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"studyhive-backend-go/internal/authz"
	"studyhive-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// formFile extracts the single "file" part of a multipart request and
// enforces the MIME allowlist and size cap. A missing file part is not
// an error; callers decide whether a file is required.
func (s *Server) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(s.Config.MaxUploadBytes + (1 << 20)); err != nil {
		return nil, nil, services.ErrBadRequest("Invalid multipart payload")
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, services.ErrBadRequest("Invalid multipart payload")
	}
	if header.Size > s.Config.MaxUploadBytes {
		_ = file.Close()
		return nil, nil, services.ErrBadRequest(fmt.Sprintf("File exceeds the %dMB upload limit", s.Config.MaxUploadBytes>>20))
	}
	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		_ = file.Close()
		return nil, nil, services.ErrBadRequest("Unsupported file type; allowed: jpeg, png, webp, pdf")
	}
	return file, header, nil
}

// SubmitAssignment accepts a multipart form with a "file" part and/or
// a "text" field. The deadline is checked before the upload is stored.
func (s *Server) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, rel, err := s.loadAssignmentRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.SubmissionCreate, rel) {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	if err := services.CheckDeadline(assignment, time.Now().UTC()); err != nil {
		WriteServiceError(w, err)
		return
	}
	file, header, err := s.formFile(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var upload *services.BlobRef
	if file != nil {
		defer func() { _ = file.Close() }()
		ref, err := s.Blobs.Save(services.BucketSubmissions, header.Header.Get("Content-Type"), header.Filename, CurrentUserID(r), file)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		upload = &ref
	}
	var text *string
	if value := strings.TrimSpace(r.FormValue("text")); value != "" {
		text = &value
	}
	submission, err := services.SubmitAssignment(s.DB, s.Blobs, assignment, CurrentUserID(r), upload, text)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, "Assignment submitted successfully", map[string]any{
		"submissionId": submission.ID,
		"status":       submission.Status,
		"submittedAt":  submission.SubmittedAt,
	})
}

func (s *Server) AssignmentSubmissions(w http.ResponseWriter, r *http.Request) {
	assignment, rel, err := s.loadAssignmentRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.SubmissionList, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can view submissions")
		return
	}
	items, err := services.SubmissionsByAssignment(s.DB, assignment.ID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Assignment submissions", map[string]any{
		"submissions": items,
		"count":       len(items),
	})
}

func (s *Server) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	submission, err := services.SubmissionByID(s.DB, chi.URLParam(r, "submissionId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	assignment, err := services.AssignmentByID(s.DB, submission.AssignmentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	membership, err := services.GroupMembership(s.DB, assignment.GroupID, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.SubmissionReview, authz.Rel{Membership: membership}) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can review submissions")
		return
	}
	var req struct {
		Status        string  `json:"status"`
		Feedback      *string `json:"feedback"`
		MarksObtained *int    `json:"marksObtained"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.MarksObtained != nil && (*req.MarksObtained < 0 || *req.MarksObtained > assignment.MaxMarks) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Marks must be between 0 and %d", assignment.MaxMarks))
		return
	}
	reviewed, err := services.ReviewSubmission(s.DB, submission, req.Status, req.Feedback, req.MarksObtained)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Submission reviewed successfully", map[string]any{
		"submissionId":  reviewed.ID,
		"status":        reviewed.Status,
		"marksObtained": reviewed.MarksObtained,
		"feedback":      reviewed.Feedback,
		"reviewedAt":    reviewed.ReviewedAt,
	})
}

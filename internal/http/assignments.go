package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"studyhive-backend-go/internal/authz"
	"studyhive-backend-go/internal/models"
	"studyhive-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type AssignmentDTO struct {
	AssignmentID       string     `json:"assignmentId"`
	Title              string     `json:"title"`
	Description        *string    `json:"description"`
	GoalID             string     `json:"goalId"`
	GroupID            string     `json:"groupId"`
	CreatedBy          string     `json:"createdBy"`
	Deadline           *time.Time `json:"deadline"`
	ReferenceMaterials []string   `json:"referenceMaterials"`
	MaxMarks           int        `json:"maxMarks"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func assignmentDTO(assignment models.Assignment) AssignmentDTO {
	materials := []string{}
	_ = json.Unmarshal(assignment.ReferenceMaterials, &materials)
	return AssignmentDTO{
		AssignmentID:       assignment.ID,
		Title:              assignment.Title,
		Description:        assignment.Description,
		GoalID:             assignment.GoalID,
		GroupID:            assignment.GroupID,
		CreatedBy:          assignment.CreatedBy,
		Deadline:           assignment.Deadline,
		ReferenceMaterials: materials,
		MaxMarks:           assignment.MaxMarks,
		CreatedAt:          assignment.CreatedAt,
	}
}

func (s *Server) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	goal, rel, err := s.loadGoalRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GoalManage, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can create assignments")
		return
	}
	var req struct {
		Title              string     `json:"title"`
		Description        *string    `json:"description"`
		Deadline           *time.Time `json:"deadline"`
		ReferenceMaterials []string   `json:"referenceMaterials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		WriteError(w, http.StatusBadRequest, "Assignment title is required")
		return
	}
	assignment, err := services.CreateAssignment(s.DB, goal, CurrentUserID(r), req.Title, req.Description, req.Deadline, req.ReferenceMaterials)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, "Assignment created successfully", assignmentDTO(assignment))
}

// GoalAssignments lists active assignments under a goal. Any group
// member may list them.
func (s *Server) GoalAssignments(w http.ResponseWriter, r *http.Request) {
	goal, rel, err := s.loadGoalRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.AssignmentView, rel) {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	items, err := services.AssignmentsByGoal(s.DB, goal.ID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Goal assignments", map[string]any{
		"assignments": items,
		"count":       len(items),
	})
}

// loadAssignmentRel fetches the active assignment plus the actor's
// membership in its group.
func (s *Server) loadAssignmentRel(r *http.Request) (models.Assignment, authz.Rel, error) {
	assignmentID := chi.URLParam(r, "assignmentId")
	assignment, err := services.ActiveAssignmentByID(s.DB, assignmentID)
	if err != nil {
		return models.Assignment{}, authz.Rel{}, err
	}
	membership, err := services.GroupMembership(s.DB, assignment.GroupID, CurrentUserID(r))
	if err != nil {
		return models.Assignment{}, authz.Rel{}, err
	}
	return assignment, authz.Rel{Membership: membership, CreatorID: assignment.CreatedBy}, nil
}

func (s *Server) AssignmentDetail(w http.ResponseWriter, r *http.Request) {
	assignment, rel, err := s.loadAssignmentRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.AssignmentView, rel) {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	WriteData(w, http.StatusOK, "Assignment details", assignmentDTO(assignment))
}

func (s *Server) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, rel, err := s.loadAssignmentRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.AssignmentManage, rel) {
		WriteError(w, http.StatusForbidden, "Only the assignment creator can manage it")
		return
	}
	var req struct {
		Title              *string    `json:"title"`
		Description        *string    `json:"description"`
		Deadline           *time.Time `json:"deadline"`
		ReferenceMaterials []string   `json:"referenceMaterials"`
		MaxMarks           *int       `json:"maxMarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	updated, err := services.UpdateAssignment(s.DB, assignment, services.AssignmentUpdate{
		Title:              req.Title,
		Description:        req.Description,
		Deadline:           req.Deadline,
		ReferenceMaterials: req.ReferenceMaterials,
		MaxMarks:           req.MaxMarks,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Assignment updated successfully", assignmentDTO(updated))
}

// DeleteAssignment deactivates instead of deleting, keeping submission
// history intact.
func (s *Server) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignment, rel, err := s.loadAssignmentRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.AssignmentManage, rel) {
		WriteError(w, http.StatusForbidden, "Only the assignment creator can manage it")
		return
	}
	if err := services.DeactivateAssignment(s.DB, assignment.ID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Assignment deleted successfully")
}

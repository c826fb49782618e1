package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"studyhive-backend-go/internal/authz"
	"studyhive-backend-go/internal/models"
	"studyhive-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) CreateGoal(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GoalManage, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can manage goals")
		return
	}
	var req struct {
		Title       string   `json:"title"`
		Description *string  `json:"description"`
		AssignedTo  []string `json:"assignedTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		WriteError(w, http.StatusBadRequest, "Goal title is required")
		return
	}
	goal, err := services.CreateGoal(s.DB, group.ID, CurrentUserID(r), req.Title, req.Description, req.AssignedTo)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, "Goal created successfully", map[string]string{"goalId": goal.ID})
}

// GroupGoals lists a group's goals. The mentor sees all of them; a
// learner member sees only goals they are assigned to.
func (s *Server) GroupGoals(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !rel.Membership.IsMember {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	goals, err := services.GoalsByGroup(s.DB, group.ID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	userID := CurrentUserID(r)
	visible := goals[:0]
	for _, goal := range goals {
		assigned := false
		for _, assignee := range goal.AssignedTo {
			if assignee == userID {
				assigned = true
				break
			}
		}
		goalRel := authz.Rel{Membership: rel.Membership, Assigned: assigned}
		if authz.Can(actor(r), authz.GoalView, goalRel) {
			visible = append(visible, goal)
		}
	}
	goals = visible
	WriteData(w, http.StatusOK, "Group goals", map[string]any{
		"goals": goals,
		"count": len(goals),
	})
}

func (s *Server) MyGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := services.GoalsByAssignee(s.DB, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Assigned goals", map[string]any{
		"goals": goals,
		"count": len(goals),
	})
}

// loadGoalRel fetches the goal and the actor's membership in its group.
func (s *Server) loadGoalRel(r *http.Request) (models.Goal, authz.Rel, error) {
	goalID := chi.URLParam(r, "goalId")
	goal, err := services.GoalByID(s.DB, goalID)
	if err != nil {
		return models.Goal{}, authz.Rel{}, err
	}
	membership, err := services.GroupMembership(s.DB, goal.GroupID, CurrentUserID(r))
	if err != nil {
		return models.Goal{}, authz.Rel{}, err
	}
	return goal, authz.Rel{Membership: membership}, nil
}

func (s *Server) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	goal, rel, err := s.loadGoalRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GoalManage, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can manage goals")
		return
	}
	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Status      *string  `json:"status"`
		AssignedTo  []string `json:"assignedTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	updated, err := services.UpdateGoal(s.DB, goal, services.GoalUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Goal updated successfully", map[string]string{
		"goalId": updated.ID,
		"status": updated.Status,
	})
}

func (s *Server) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	goal, rel, err := s.loadGoalRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GoalManage, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can manage goals")
		return
	}
	if err := services.DeleteGoal(s.DB, goal.ID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Goal deleted successfully")
}

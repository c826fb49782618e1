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

func actor(r *http.Request) authz.Actor {
	return authz.Actor{UserID: CurrentUserID(r), Role: CurrentRole(r)}
}

type GroupDTO struct {
	GroupID     string    `json:"groupId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	InviteCode  string    `json:"inviteCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func groupDTO(group models.Group, includeInvite bool) GroupDTO {
	dto := GroupDTO{
		GroupID:     group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatedAt:   group.CreatedAt,
	}
	if includeInvite {
		dto.InviteCode = group.InviteCode
	}
	return dto
}

func (s *Server) MyGroups(w http.ResponseWriter, r *http.Request) {
	items, err := services.JoinedGroups(s.DB, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Joined groups", items)
}

func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	if !authz.Can(actor(r), authz.GroupCreate, authz.Rel{}) {
		WriteError(w, http.StatusForbidden, "Only mentors can create groups")
		return
	}
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "Group name is required")
		return
	}
	group, err := services.CreateGroup(s.DB, req.Name, req.Description, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, "Group created successfully", groupDTO(group, true))
}

func (s *Server) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.InviteCode) == "" {
		WriteError(w, http.StatusBadRequest, "Invite code is required")
		return
	}
	group, err := services.JoinGroup(s.DB, strings.TrimSpace(req.InviteCode), CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Joined group successfully", groupDTO(group, false))
}

// loadGroupRel fetches the group and the actor's membership in it. The
// 404 for a missing group fires before any authorization check.
func (s *Server) loadGroupRel(r *http.Request) (models.Group, authz.Rel, error) {
	groupID := chi.URLParam(r, "groupId")
	group, err := services.GroupByID(s.DB, groupID)
	if err != nil {
		return models.Group{}, authz.Rel{}, err
	}
	membership, err := services.GroupMembership(s.DB, group.ID, CurrentUserID(r))
	if err != nil {
		return models.Group{}, authz.Rel{}, err
	}
	return group, authz.Rel{Membership: membership}, nil
}

func (s *Server) GroupDetail(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GroupView, rel) {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	includeInvite := rel.Membership.Role == models.MemberRoleMentor
	WriteData(w, http.StatusOK, "Group details", groupDTO(group, includeInvite))
}

func (s *Server) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GroupUpdate, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can update the group")
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Name == nil && req.Description == nil {
		WriteError(w, http.StatusBadRequest, "At least one field must be updated")
		return
	}
	updated, err := services.UpdateGroup(s.DB, group.ID, req.Name, req.Description)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Group updated successfully", groupDTO(updated, true))
}

func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GroupDelete, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor or an admin can delete the group")
		return
	}
	if err := services.DeleteGroup(s.DB, group.ID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Group deleted successfully")
}

func (s *Server) GroupInvite(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GroupInvite, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can share the invite code")
		return
	}
	WriteData(w, http.StatusOK, "Group invite code", map[string]string{"inviteCode": group.InviteCode})
}

func (s *Server) GroupMembers(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GroupViewMembers, rel) {
		WriteError(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	members, err := services.GroupMembers(s.DB, group.ID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Group members", map[string]any{
		"members": members,
		"count":   len(members),
	})
}

func (s *Server) RemoveMember(w http.ResponseWriter, r *http.Request) {
	group, rel, err := s.loadGroupRel(r)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !authz.Can(actor(r), authz.GroupRemoveMember, rel) {
		WriteError(w, http.StatusForbidden, "Only the group mentor can remove members")
		return
	}
	targetID := chi.URLParam(r, "userId")
	if targetID == CurrentUserID(r) {
		WriteError(w, http.StatusBadRequest, "You cannot remove yourself from the group")
		return
	}
	if err := services.RemoveMember(s.DB, group.ID, targetID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Member removed successfully")
}

package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"studyhive-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func validGoalStatus(status string) bool {
	switch status {
	case models.GoalNotStarted, models.GoalOngoing, models.GoalCompleted:
		return true
	}
	return false
}

// CreateGoal inserts a goal and its assignee rows in one transaction.
// Every assignee must hold a membership row in the group at the time of
// assignment.
func CreateGoal(db *sqlx.DB, groupID, createdBy, title string, description *string, assignedTo []string) (models.Goal, error) {
	if len(assignedTo) == 0 {
		return models.Goal{}, ErrBadRequest("At least one valid user must be assigned to the goal")
	}
	ok, err := AllGroupMembers(db, groupID, assignedTo)
	if err != nil {
		return models.Goal{}, err
	}
	if !ok {
		return models.Goal{}, ErrBadRequest("One or more assigned users are not part of this group")
	}
	now := time.Now().UTC()
	goal := models.Goal{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: description,
		GroupID:     groupID,
		Status:      models.GoalNotStarted,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tx, err := db.Beginx()
	if err != nil {
		return models.Goal{}, err
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.Exec(`
INSERT INTO goals (id, title, description, group_id, status, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, goal.ID, goal.Title, goal.Description, goal.GroupID, goal.Status, goal.CreatedBy, now)
	if err != nil {
		return models.Goal{}, err
	}
	if err := insertAssignees(tx, goal.ID, assignedTo, now); err != nil {
		return models.Goal{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

func insertAssignees(tx *sqlx.Tx, goalID string, userIDs []string, now time.Time) error {
	for _, userID := range uniqueStrings(userIDs) {
		_, err := tx.Exec(`
INSERT INTO goal_assignees (id, goal_id, user_id, created_at)
VALUES ($1,$2,$3,$4)
`, uuid.NewString(), goalID, userID, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func GoalByID(db *sqlx.DB, goalID string) (models.Goal, error) {
	var goal models.Goal
	err := db.Get(&goal, `SELECT * FROM goals WHERE id = $1`, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Goal{}, ErrNotFound("Goal not found")
	}
	return goal, err
}

type GoalView struct {
	ID          string    `json:"goalId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	GroupID     string    `json:"groupId"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	AssignedTo  []string  `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
}

func goalViews(db *sqlx.DB, goals []models.Goal) ([]GoalView, error) {
	views := make([]GoalView, 0, len(goals))
	for _, goal := range goals {
		assignees := []string{}
		if err := db.Select(&assignees, `SELECT user_id FROM goal_assignees WHERE goal_id = $1 ORDER BY created_at`, goal.ID); err != nil {
			return nil, err
		}
		views = append(views, GoalView{
			ID:          goal.ID,
			Title:       goal.Title,
			Description: goal.Description,
			GroupID:     goal.GroupID,
			Status:      goal.Status,
			CreatedBy:   goal.CreatedBy,
			AssignedTo:  assignees,
			CreatedAt:   goal.CreatedAt,
		})
	}
	return views, nil
}

func GoalsByGroup(db *sqlx.DB, groupID string) ([]GoalView, error) {
	goals := []models.Goal{}
	if err := db.Select(&goals, `SELECT * FROM goals WHERE group_id = $1 ORDER BY created_at DESC`, groupID); err != nil {
		return nil, err
	}
	return goalViews(db, goals)
}

func GoalsByAssignee(db *sqlx.DB, userID string) ([]GoalView, error) {
	goals := []models.Goal{}
	if err := db.Select(&goals, `
SELECT g.* FROM goals g
JOIN goal_assignees ga ON ga.goal_id = g.id
WHERE ga.user_id = $1
ORDER BY g.created_at DESC
`, userID); err != nil {
		return nil, err
	}
	return goalViews(db, goals)
}

type GoalUpdate struct {
	Title       *string
	Description *string
	Status      *string
	AssignedTo  []string
}

func (u GoalUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.AssignedTo == nil
}

// UpdateGoal applies a partial update. A new assignee set is
// revalidated against current group membership and replaces the old set
// atomically.
func UpdateGoal(db *sqlx.DB, goal models.Goal, update GoalUpdate) (models.Goal, error) {
	if update.Empty() {
		return models.Goal{}, ErrBadRequest("At least one field must be updated")
	}
	if update.Status != nil && !validGoalStatus(*update.Status) {
		return models.Goal{}, ErrBadRequest("Invalid goal status")
	}
	if update.AssignedTo != nil {
		if len(update.AssignedTo) == 0 {
			return models.Goal{}, ErrBadRequest("Assigned users cannot be empty")
		}
		ok, err := AllGroupMembers(db, goal.GroupID, update.AssignedTo)
		if err != nil {
			return models.Goal{}, err
		}
		if !ok {
			return models.Goal{}, ErrBadRequest("One or more assigned users are not part of this group")
		}
	}
	now := time.Now().UTC()
	tx, err := db.Beginx()
	if err != nil {
		return models.Goal{}, err
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.Exec(`
UPDATE goals
SET title = COALESCE($2, title),
    description = COALESCE($3, description),
    status = COALESCE($4, status),
    updated_at = $5
WHERE id = $1
`, goal.ID, update.Title, update.Description, update.Status, now)
	if err != nil {
		return models.Goal{}, err
	}
	if update.AssignedTo != nil {
		if _, err := tx.Exec(`DELETE FROM goal_assignees WHERE goal_id = $1`, goal.ID); err != nil {
			return models.Goal{}, err
		}
		if err := insertAssignees(tx, goal.ID, update.AssignedTo, now); err != nil {
			return models.Goal{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Goal{}, err
	}
	return GoalByID(db, goal.ID)
}

func DeleteGoal(db *sqlx.DB, goalID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM goal_assignees WHERE goal_id = $1`, goalID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM goals WHERE id = $1`, goalID); err != nil {
		return err
	}
	return tx.Commit()
}

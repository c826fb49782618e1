package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"studyhive-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const DefaultMaxMarks = 100

func CreateAssignment(db *sqlx.DB, goal models.Goal, createdBy, title string, description *string, deadline *time.Time, referenceMaterials []string) (models.Assignment, error) {
	if referenceMaterials == nil {
		referenceMaterials = []string{}
	}
	materials, err := json.Marshal(referenceMaterials)
	if err != nil {
		return models.Assignment{}, err
	}
	now := time.Now().UTC()
	assignment := models.Assignment{
		ID:                 uuid.NewString(),
		Title:              strings.TrimSpace(title),
		Description:        description,
		GoalID:             goal.ID,
		GroupID:            goal.GroupID,
		CreatedBy:          createdBy,
		Deadline:           deadline,
		ReferenceMaterials: materials,
		MaxMarks:           DefaultMaxMarks,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err = db.Exec(`
INSERT INTO assignments (id, title, description, goal_id, group_id, created_by, deadline, reference_materials, max_marks, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10,$11,$11)
`, assignment.ID, assignment.Title, assignment.Description, assignment.GoalID, assignment.GroupID,
		assignment.CreatedBy, assignment.Deadline, string(assignment.ReferenceMaterials), assignment.MaxMarks, assignment.IsActive, now)
	if err != nil {
		return models.Assignment{}, err
	}
	return assignment, nil
}

func AssignmentByID(db *sqlx.DB, assignmentID string) (models.Assignment, error) {
	var assignment models.Assignment
	err := db.Get(&assignment, `SELECT * FROM assignments WHERE id = $1`, assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Assignment{}, ErrNotFound("Assignment not found")
	}
	return assignment, err
}

// ActiveAssignmentByID behaves like AssignmentByID but hides
// soft-deleted assignments, matching the submission and listing flows.
func ActiveAssignmentByID(db *sqlx.DB, assignmentID string) (models.Assignment, error) {
	assignment, err := AssignmentByID(db, assignmentID)
	if err != nil {
		return models.Assignment{}, err
	}
	if !assignment.IsActive {
		return models.Assignment{}, ErrNotFound("Assignment not found or inactive")
	}
	return assignment, nil
}

type AssignmentSummary struct {
	ID       string     `db:"id" json:"assignmentId"`
	Title    string     `db:"title" json:"title"`
	Deadline *time.Time `db:"deadline" json:"deadline"`
	MaxMarks int        `db:"max_marks" json:"maxMarks"`
}

func AssignmentsByGoal(db *sqlx.DB, goalID string) ([]AssignmentSummary, error) {
	items := []AssignmentSummary{}
	err := db.Select(&items, `
SELECT id, title, deadline, max_marks
FROM assignments
WHERE goal_id = $1 AND is_active = TRUE
ORDER BY created_at DESC
`, goalID)
	return items, err
}

type AssignmentUpdate struct {
	Title              *string
	Description        *string
	Deadline           *time.Time
	ReferenceMaterials []string
	MaxMarks           *int
	IsActive           *bool
}

func (u AssignmentUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Deadline == nil &&
		u.ReferenceMaterials == nil && u.MaxMarks == nil && u.IsActive == nil
}

func UpdateAssignment(db *sqlx.DB, assignment models.Assignment, update AssignmentUpdate) (models.Assignment, error) {
	if update.Empty() {
		return models.Assignment{}, ErrBadRequest("At least one field must be updated")
	}
	var materials *string
	if update.ReferenceMaterials != nil {
		encoded, err := json.Marshal(update.ReferenceMaterials)
		if err != nil {
			return models.Assignment{}, err
		}
		text := string(encoded)
		materials = &text
	}
	_, err := db.Exec(`
UPDATE assignments
SET title = COALESCE($2, title),
    description = COALESCE($3, description),
    deadline = COALESCE($4, deadline),
    reference_materials = COALESCE($5::jsonb, reference_materials),
    max_marks = COALESCE($6, max_marks),
    is_active = COALESCE($7, is_active),
    updated_at = $8
WHERE id = $1
`, assignment.ID, update.Title, update.Description, update.Deadline, materials, update.MaxMarks, update.IsActive, time.Now().UTC())
	if err != nil {
		return models.Assignment{}, err
	}
	return AssignmentByID(db, assignment.ID)
}

// DeactivateAssignment soft-deletes: the row stays, but submission and
// listing flows no longer see it.
func DeactivateAssignment(db *sqlx.DB, assignmentID string) error {
	_, err := db.Exec(`UPDATE assignments SET is_active = FALSE, updated_at = $2 WHERE id = $1`, assignmentID, time.Now().UTC())
	return err
}

package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"studyhive-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NewInviteCode returns a 12-hex-char group invite code. Codes do not
// expire; uniqueness is enforced by the index on groups.invite_code.
func NewInviteCode() (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// CreateGroup inserts the group and the creator's mentor membership in
// one transaction, so a group never exists without its mentor row.
func CreateGroup(db *sqlx.DB, name string, description *string, mentorID string) (models.Group, error) {
	code, err := NewInviteCode()
	if err != nil {
		return models.Group{}, err
	}
	now := time.Now().UTC()
	group := models.Group{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		InviteCode:  code,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tx, err := db.Beginx()
	if err != nil {
		return models.Group{}, err
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.Exec(`
INSERT INTO groups (id, name, description, invite_code, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, group.ID, group.Name, group.Description, group.InviteCode, now)
	if err != nil {
		return models.Group{}, err
	}
	_, err = tx.Exec(`
INSERT INTO group_members (id, group_id, user_id, member_role, joined_at, created_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, uuid.NewString(), group.ID, mentorID, models.MemberRoleMentor, now)
	if err != nil {
		return models.Group{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func GroupByID(db *sqlx.DB, groupID string) (models.Group, error) {
	var group models.Group
	err := db.Get(&group, `SELECT * FROM groups WHERE id = $1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrNotFound("Group not found")
	}
	return group, err
}

// JoinGroup adds the user as a learner of the group matching the invite
// code. Concurrent joins for the same user are closed out by the unique
// (group_id, user_id) index, not by the pre-check alone.
func JoinGroup(db *sqlx.DB, inviteCode, userID string) (models.Group, error) {
	var group models.Group
	err := db.Get(&group, `SELECT * FROM groups WHERE invite_code = $1`, inviteCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrNotFound("Invalid or expired invite code")
	}
	if err != nil {
		return models.Group{}, err
	}
	var exists bool
	if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`, group.ID, userID); err != nil {
		return models.Group{}, err
	}
	if exists {
		return models.Group{}, ErrConflict("You are already a member")
	}
	now := time.Now().UTC()
	_, err = db.Exec(`
INSERT INTO group_members (id, group_id, user_id, member_role, joined_at, created_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, uuid.NewString(), group.ID, userID, models.MemberRoleLearner, now)
	if IsUniqueViolation(err) {
		return models.Group{}, ErrConflict("You are already a member")
	}
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

type JoinedGroup struct {
	GroupID string `db:"group_id" json:"groupId"`
	Name    string `db:"name" json:"name"`
	Role    string `db:"member_role" json:"role"`
}

func JoinedGroups(db *sqlx.DB, userID string) ([]JoinedGroup, error) {
	items := []JoinedGroup{}
	err := db.Select(&items, `
SELECT gm.group_id, g.name, gm.member_role
FROM group_members gm
JOIN groups g ON g.id = gm.group_id
WHERE gm.user_id = $1
ORDER BY gm.joined_at
`, userID)
	return items, err
}

func UpdateGroup(db *sqlx.DB, groupID string, name, description *string) (models.Group, error) {
	_, err := db.Exec(`
UPDATE groups
SET name = COALESCE($2, name),
    description = COALESCE($3, description),
    updated_at = $4
WHERE id = $1
`, groupID, name, description, time.Now().UTC())
	if err != nil {
		return models.Group{}, err
	}
	return GroupByID(db, groupID)
}

// DeleteGroup removes the group and all of its membership rows in one
// transaction.
func DeleteGroup(db *sqlx.DB, groupID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM groups WHERE id = $1`, groupID); err != nil {
		return err
	}
	return tx.Commit()
}

type MemberInfo struct {
	UserID   string    `db:"user_id" json:"userId"`
	Name     string    `db:"name" json:"name"`
	Email    string    `db:"email" json:"email"`
	Role     string    `db:"member_role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

func GroupMembers(db *sqlx.DB, groupID string) ([]MemberInfo, error) {
	items := []MemberInfo{}
	err := db.Select(&items, `
SELECT gm.user_id, u.name, u.email, gm.member_role, gm.joined_at
FROM group_members gm
JOIN users u ON u.id = gm.user_id
WHERE gm.group_id = $1
ORDER BY gm.joined_at
`, groupID)
	return items, err
}

func RemoveMember(db *sqlx.DB, groupID, userID string) error {
	result, err := db.Exec(`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound("Group member not found")
	}
	return nil
}

package services

import (
	"database/sql"
	"errors"

	"studyhive-backend-go/internal/authz"

	"github.com/jmoiron/sqlx"
)

// GroupMembership loads the actor's membership snapshot for a group.
// A missing row is not an error; it yields the zero Membership.
func GroupMembership(db *sqlx.DB, groupID, userID string) (authz.Membership, error) {
	var role string
	err := db.Get(&role, `SELECT member_role FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.Membership{}, nil
	}
	if err != nil {
		return authz.Membership{}, err
	}
	return authz.Membership{IsMember: true, Role: role}, nil
}

func IsGoalAssignee(db *sqlx.DB, goalID, userID string) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM goal_assignees WHERE goal_id = $1 AND user_id = $2)`, goalID, userID)
	return exists, err
}

// AllGroupMembers reports whether every id in userIDs holds a
// membership row in the group.
func AllGroupMembers(db *sqlx.DB, groupID string, userIDs []string) (bool, error) {
	if len(userIDs) == 0 {
		return false, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(DISTINCT user_id) FROM group_members WHERE group_id = ? AND user_id IN (?)`, groupID, userIDs)
	if err != nil {
		return false, err
	}
	query = db.Rebind(query)
	var count int
	if err := db.Get(&count, query, args...); err != nil {
		return false, err
	}
	return count == len(uniqueStrings(userIDs)), nil
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

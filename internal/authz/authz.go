// Package authz holds the pure authorization rules for the platform.
// Callers load a relationship snapshot for the actor and target, then
// ask Can; nothing in here touches the database, so the whole rule
// table is unit-testable. Entity existence is checked by callers before
// authorization so "not found" and "forbidden" stay distinct.
package authz

type Action string

const (
	GroupCreate       Action = "group.create"
	GroupView         Action = "group.view"
	GroupUpdate       Action = "group.update"
	GroupDelete       Action = "group.delete"
	GroupInvite       Action = "group.invite"
	GroupViewMembers  Action = "group.view_members"
	GroupRemoveMember Action = "group.remove_member"

	GoalManage Action = "goal.manage"
	GoalView   Action = "goal.view"

	AssignmentManage Action = "assignment.manage"
	AssignmentView   Action = "assignment.view"

	SubmissionCreate Action = "submission.create"
	SubmissionReview Action = "submission.review"
	SubmissionList   Action = "submission.list"

	ResourceUpload Action = "resource.upload"
	ResourceView   Action = "resource.view"
	ResourceDelete Action = "resource.delete"
)

// Actor is the authenticated identity: user id plus global platform
// role. The group-scoped role lives in Membership and is checked
// independently.
type Actor struct {
	UserID string
	Role   string
}

// Membership is the actor's row in the target group, if any.
type Membership struct {
	IsMember bool
	Role     string
}

// Rel is the relationship snapshot between an actor and a target
// entity. Fields irrelevant to a given action are left zero.
type Rel struct {
	Membership Membership
	// CreatorID is the target's createdBy/uploadedBy user id.
	CreatorID string
	// Assigned reports whether the actor appears in the goal's
	// assignee set.
	Assigned bool
}

const (
	roleAdmin   = "admin"
	roleMentor  = "mentor"
	roleLearner = "learner"
)

const memberRoleMentor = "mentor"

func (m Membership) isMentor() bool {
	return m.IsMember && m.Role == memberRoleMentor
}

// Can decides whether the actor may perform action against a target
// described by rel.
func Can(actor Actor, action Action, rel Rel) bool {
	switch action {
	case GroupCreate:
		return actor.Role == roleMentor
	case GroupView, GroupViewMembers, ResourceView:
		return rel.Membership.IsMember
	case GroupUpdate, GroupInvite, GroupRemoveMember:
		return rel.Membership.isMentor()
	case GroupDelete:
		return actor.Role == roleAdmin || rel.Membership.isMentor()
	case GoalManage:
		return rel.Membership.isMentor()
	case GoalView:
		return rel.Membership.isMentor() || rel.Assigned
	case AssignmentManage:
		return actor.UserID != "" && actor.UserID == rel.CreatorID
	case AssignmentView, SubmissionCreate:
		return rel.Membership.IsMember
	case SubmissionReview, SubmissionList:
		return rel.Membership.isMentor()
	case ResourceUpload:
		return rel.Membership.isMentor()
	case ResourceDelete:
		if actor.Role == roleAdmin {
			return true
		}
		return rel.Membership.IsMember && actor.UserID == rel.CreatorID
	default:
		return false
	}
}

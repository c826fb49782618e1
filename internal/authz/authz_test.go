package authz

import "testing"

func TestCan_GroupRules(t *testing.T) {
	mentor := Actor{UserID: "u1", Role: "mentor"}
	learner := Actor{UserID: "u2", Role: "learner"}
	admin := Actor{UserID: "u3", Role: "admin"}

	mentorMember := Rel{Membership: Membership{IsMember: true, Role: "mentor"}}
	learnerMember := Rel{Membership: Membership{IsMember: true, Role: "learner"}}
	outsider := Rel{}

	cases := []struct {
		name   string
		actor  Actor
		action Action
		rel    Rel
		want   bool
	}{
		{"mentor creates group", mentor, GroupCreate, Rel{}, true},
		{"learner cannot create group", learner, GroupCreate, Rel{}, false},
		{"admin cannot create group", admin, GroupCreate, Rel{}, false},

		{"member views group", learner, GroupView, learnerMember, true},
		{"outsider cannot view group", learner, GroupView, outsider, false},
		{"member views members", learner, GroupViewMembers, learnerMember, true},

		{"group mentor updates", mentor, GroupUpdate, mentorMember, true},
		{"learner member cannot update", learner, GroupUpdate, learnerMember, false},
		{"mentor of other group cannot update", mentor, GroupUpdate, outsider, false},

		{"group mentor deletes", mentor, GroupDelete, mentorMember, true},
		{"admin deletes without membership", admin, GroupDelete, outsider, true},
		{"learner cannot delete", learner, GroupDelete, learnerMember, false},

		{"group mentor shares invite", mentor, GroupInvite, mentorMember, true},
		{"learner cannot share invite", learner, GroupInvite, learnerMember, false},

		{"group mentor removes member", mentor, GroupRemoveMember, mentorMember, true},
		{"admin cannot remove member without membership", admin, GroupRemoveMember, outsider, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.actor, tc.action, tc.rel); got != tc.want {
				t.Fatalf("Can(%v, %s) = %v, want %v", tc.actor, tc.action, got, tc.want)
			}
		})
	}
}

func TestCan_GoalRules(t *testing.T) {
	mentorMember := Rel{Membership: Membership{IsMember: true, Role: "mentor"}}
	learnerMember := Rel{Membership: Membership{IsMember: true, Role: "learner"}}

	mentor := Actor{UserID: "m", Role: "mentor"}
	learner := Actor{UserID: "l", Role: "learner"}

	if !Can(mentor, GoalManage, mentorMember) {
		t.Fatal("group mentor should manage goals")
	}
	if Can(learner, GoalManage, learnerMember) {
		t.Fatal("learner member should not manage goals")
	}
	if !Can(mentor, GoalView, mentorMember) {
		t.Fatal("group mentor should view goals")
	}
	assigned := learnerMember
	assigned.Assigned = true
	if !Can(learner, GoalView, assigned) {
		t.Fatal("assigned learner should view the goal")
	}
	if Can(learner, GoalView, learnerMember) {
		t.Fatal("unassigned learner should not view the goal")
	}
}

func TestCan_AssignmentAndSubmissionRules(t *testing.T) {
	mentorMember := Membership{IsMember: true, Role: "mentor"}
	learnerMember := Membership{IsMember: true, Role: "learner"}

	creator := Actor{UserID: "creator", Role: "mentor"}
	other := Actor{UserID: "other", Role: "mentor"}
	learner := Actor{UserID: "learner", Role: "learner"}

	creatorRel := Rel{Membership: mentorMember, CreatorID: "creator"}
	if !Can(creator, AssignmentManage, creatorRel) {
		t.Fatal("creator should manage their assignment")
	}
	if Can(other, AssignmentManage, creatorRel) {
		t.Fatal("another mentor should not manage the assignment")
	}
	if Can(Actor{}, AssignmentManage, Rel{}) {
		t.Fatal("empty actor should never pass the creator check")
	}

	memberRel := Rel{Membership: learnerMember}
	if !Can(learner, AssignmentView, memberRel) {
		t.Fatal("member should view assignments")
	}
	if !Can(learner, SubmissionCreate, memberRel) {
		t.Fatal("member should submit")
	}
	if Can(learner, SubmissionCreate, Rel{}) {
		t.Fatal("outsider should not submit")
	}
	if Can(learner, SubmissionReview, memberRel) {
		t.Fatal("learner should not review")
	}
	if !Can(other, SubmissionReview, Rel{Membership: mentorMember}) {
		t.Fatal("group mentor should review")
	}
	if !Can(other, SubmissionList, Rel{Membership: mentorMember}) {
		t.Fatal("group mentor should list submissions")
	}
}

func TestCan_ResourceRules(t *testing.T) {
	mentorMember := Membership{IsMember: true, Role: "mentor"}
	learnerMember := Membership{IsMember: true, Role: "learner"}

	uploader := Actor{UserID: "up", Role: "mentor"}
	admin := Actor{UserID: "adm", Role: "admin"}
	learner := Actor{UserID: "lr", Role: "learner"}

	if !Can(uploader, ResourceUpload, Rel{Membership: mentorMember}) {
		t.Fatal("group mentor should upload resources")
	}
	if Can(learner, ResourceUpload, Rel{Membership: learnerMember}) {
		t.Fatal("learner should not upload resources")
	}
	if !Can(learner, ResourceView, Rel{Membership: learnerMember}) {
		t.Fatal("member should view resources")
	}

	ownRel := Rel{Membership: mentorMember, CreatorID: "up"}
	if !Can(uploader, ResourceDelete, ownRel) {
		t.Fatal("uploader should delete their resource")
	}
	otherRel := Rel{Membership: mentorMember, CreatorID: "someone-else"}
	if Can(uploader, ResourceDelete, otherRel) {
		t.Fatal("non-uploader member should not delete the resource")
	}
	if !Can(admin, ResourceDelete, Rel{CreatorID: "someone-else"}) {
		t.Fatal("admin should delete any resource without membership")
	}
}

func TestCan_UnknownActionDenied(t *testing.T) {
	if Can(Actor{UserID: "u", Role: "admin"}, Action("nonsense"), Rel{}) {
		t.Fatal("unknown actions must be denied")
	}
}

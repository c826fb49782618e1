package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleMentor  = "mentor"
	RoleLearner = "learner"
)

const (
	MemberRoleMentor  = "mentor"
	MemberRoleLearner = "learner"
)

const (
	GoalNotStarted = "not_started"
	GoalOngoing    = "ongoing"
	GoalCompleted  = "completed"
)

const (
	SubmissionPending          = "pending"
	SubmissionSubmitted        = "submitted"
	SubmissionReviewed         = "reviewed"
	SubmissionRevisionRequired = "revision_required"
)

const (
	ResourceFile = "file"
	ResourceLink = "link"
	ResourceNote = "note"
)

type User struct {
	ID                      string     `db:"id"`
	Name                    string     `db:"name"`
	Email                   string     `db:"email"`
	PasswordHash            string     `db:"password_hash"`
	Role                    string     `db:"role"`
	IsEmailVerified         bool       `db:"is_email_verified"`
	RefreshTokenHash        *string    `db:"refresh_token_hash"`
	EmailVerificationToken  *string    `db:"email_verification_token"`
	EmailVerificationExpiry *time.Time `db:"email_verification_expiry"`
	ForgotPasswordToken     *string    `db:"forgot_password_token"`
	ForgotPasswordExpiry    *time.Time `db:"forgot_password_expiry"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

type Group struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	InviteCode  string    `db:"invite_code"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type GroupMember struct {
	ID         string    `db:"id"`
	GroupID    string    `db:"group_id"`
	UserID     string    `db:"user_id"`
	MemberRole string    `db:"member_role"`
	JoinedAt   time.Time `db:"joined_at"`
	CreatedAt  time.Time `db:"created_at"`
}

type Goal struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	GroupID     string    `db:"group_id"`
	Status      string    `db:"status"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Assignment struct {
	ID                 string     `db:"id"`
	Title              string     `db:"title"`
	Description        *string    `db:"description"`
	GoalID             string     `db:"goal_id"`
	GroupID            string     `db:"group_id"`
	CreatedBy          string     `db:"created_by"`
	Deadline           *time.Time `db:"deadline"`
	ReferenceMaterials []byte     `db:"reference_materials"`
	MaxMarks           int        `db:"max_marks"`
	IsActive           bool       `db:"is_active"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

type Submission struct {
	ID            string     `db:"id"`
	AssignmentID  string     `db:"assignment_id"`
	UserID        string     `db:"user_id"`
	SubmittedFile *string    `db:"submitted_file"`
	SubmittedText *string    `db:"submitted_text"`
	Status        string     `db:"status"`
	MarksObtained *int       `db:"marks_obtained"`
	Feedback      *string    `db:"feedback"`
	SubmittedAt   *time.Time `db:"submitted_at"`
	ReviewedAt    *time.Time `db:"reviewed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type Resource struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	Type        string    `db:"type"`
	GroupID     string    `db:"group_id"`
	UploadedBy  string    `db:"uploaded_by"`
	FileURL     *string   `db:"file_url"`
	FileAssetID *string   `db:"file_asset_id"`
	LinkURL     *string   `db:"link_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type MediaAsset struct {
	ID          string    `db:"id"`
	OwnerUserID *string   `db:"owner_user_id"`
	Bucket      string    `db:"bucket"`
	StorageKey  string    `db:"storage_key"`
	Filename    *string   `db:"filename"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Sha256      *string   `db:"sha256"`
	CreatedAt   time.Time `db:"created_at"`
}

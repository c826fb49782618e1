package services

import (
	"database/sql"
	"errors"
	"time"

	"studyhive-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CanResubmit reports whether an existing submission may be submitted
// again. Only a revision request reopens the submission.
func CanResubmit(status string) bool {
	return status == models.SubmissionRevisionRequired
}

// CanReview reports whether a submission is in a reviewable state.
func CanReview(status string) bool {
	return status == models.SubmissionSubmitted
}

// ValidReviewStatus reports whether status is a legal review outcome.
func ValidReviewStatus(status string) bool {
	return status == models.SubmissionReviewed || status == models.SubmissionRevisionRequired
}

// CheckDeadline rejects submissions after the assignment deadline. The
// deadline is enforced at submit time only.
func CheckDeadline(assignment models.Assignment, now time.Time) error {
	if assignment.Deadline != nil && now.After(*assignment.Deadline) {
		return ErrForbidden("Assignment submission deadline has passed")
	}
	return nil
}

// SubmitAssignment records a submission for (assignment, user). A first
// submission inserts; a resubmission is allowed only from
// revision_required and overwrites the file/text fields. The row is
// locked inside the transaction so concurrent submits for the same pair
// collapse into one insert plus a conflict. A rejected submission does
// not keep its upload: the stored blob is removed before the error
// returns, so a late or duplicate submit leaves nothing behind.
func SubmitAssignment(db *sqlx.DB, blobs BlobStore, assignment models.Assignment, userID string, upload *BlobRef, text *string) (models.Submission, error) {
	submission, err := storeSubmission(db, assignment, userID, upload, text)
	if err != nil && upload != nil {
		_ = blobs.Delete(upload.ID)
	}
	return submission, err
}

func storeSubmission(db *sqlx.DB, assignment models.Assignment, userID string, upload *BlobRef, text *string) (models.Submission, error) {
	if err := CheckDeadline(assignment, time.Now().UTC()); err != nil {
		return models.Submission{}, err
	}
	var fileRef *string
	if upload != nil {
		fileRef = &upload.URL
	}
	if fileRef == nil && text == nil {
		return models.Submission{}, ErrBadRequest("Either file or text submission is required")
	}
	now := time.Now().UTC()
	tx, err := db.Beginx()
	if err != nil {
		return models.Submission{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing models.Submission
	err = tx.Get(&existing, `
SELECT * FROM submissions WHERE assignment_id = $1 AND user_id = $2 FOR UPDATE
`, assignment.ID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		submission := models.Submission{
			ID:            uuid.NewString(),
			AssignmentID:  assignment.ID,
			UserID:        userID,
			SubmittedFile: fileRef,
			SubmittedText: text,
			Status:        models.SubmissionSubmitted,
			SubmittedAt:   &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		_, err = tx.Exec(`
INSERT INTO submissions (id, assignment_id, user_id, submitted_file, submitted_text, status, submitted_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, submission.ID, submission.AssignmentID, submission.UserID, submission.SubmittedFile, submission.SubmittedText, submission.Status, submission.SubmittedAt, now)
		if IsUniqueViolation(err) {
			return models.Submission{}, ErrConflict("Assignment already submitted")
		}
		if err != nil {
			return models.Submission{}, err
		}
		if err := tx.Commit(); err != nil {
			return models.Submission{}, err
		}
		return submission, nil
	case err != nil:
		return models.Submission{}, err
	}

	if !CanResubmit(existing.Status) {
		return models.Submission{}, ErrConflict("Assignment already submitted")
	}
	if fileRef != nil {
		existing.SubmittedFile = fileRef
	}
	if text != nil {
		existing.SubmittedText = text
	}
	existing.Status = models.SubmissionSubmitted
	existing.SubmittedAt = &now
	existing.UpdatedAt = now
	_, err = tx.Exec(`
UPDATE submissions
SET submitted_file = $2, submitted_text = $3, status = $4, submitted_at = $5, updated_at = $5
WHERE id = $1
`, existing.ID, existing.SubmittedFile, existing.SubmittedText, existing.Status, now)
	if err != nil {
		return models.Submission{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Submission{}, err
	}
	return existing, nil
}

func SubmissionByID(db *sqlx.DB, submissionID string) (models.Submission, error) {
	var submission models.Submission
	err := db.Get(&submission, `SELECT * FROM submissions WHERE id = $1`, submissionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, ErrNotFound("Submission not found")
	}
	return submission, err
}

// ReviewSubmission moves a submitted submission to reviewed or
// revision_required and records marks/feedback.
func ReviewSubmission(db *sqlx.DB, submission models.Submission, status string, feedback *string, marksObtained *int) (models.Submission, error) {
	if !ValidReviewStatus(status) {
		return models.Submission{}, ErrBadRequest("Invalid review status")
	}
	if !CanReview(submission.Status) {
		return models.Submission{}, ErrBadRequest("Submission is not in a reviewable state")
	}
	now := time.Now().UTC()
	if feedback != nil {
		submission.Feedback = feedback
	}
	if marksObtained != nil {
		submission.MarksObtained = marksObtained
	}
	submission.Status = status
	submission.ReviewedAt = &now
	submission.UpdatedAt = now
	_, err := db.Exec(`
UPDATE submissions
SET status = $2, feedback = $3, marks_obtained = $4, reviewed_at = $5, updated_at = $5
WHERE id = $1
`, submission.ID, submission.Status, submission.Feedback, submission.MarksObtained, now)
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

type SubmissionView struct {
	ID            string     `db:"id" json:"submissionId"`
	UserID        string     `db:"user_id" json:"userId"`
	UserName      string     `db:"name" json:"userName"`
	UserEmail     string     `db:"email" json:"userEmail"`
	Status        string     `db:"status" json:"status"`
	MarksObtained *int       `db:"marks_obtained" json:"marksObtained"`
	Feedback      *string    `db:"feedback" json:"feedback"`
	SubmittedAt   *time.Time `db:"submitted_at" json:"submittedAt"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewedAt"`
}

func SubmissionsByAssignment(db *sqlx.DB, assignmentID string) ([]SubmissionView, error) {
	items := []SubmissionView{}
	err := db.Select(&items, `
SELECT s.id, s.user_id, u.name, u.email, s.status, s.marks_obtained, s.feedback, s.submitted_at, s.reviewed_at
FROM submissions s
JOIN users u ON u.id = s.user_id
WHERE s.assignment_id = $1
ORDER BY s.submitted_at DESC
`, assignmentID)
	return items, err
}

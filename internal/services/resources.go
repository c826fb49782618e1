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

func validResourceType(resourceType string) bool {
	switch resourceType {
	case models.ResourceFile, models.ResourceLink, models.ResourceNote:
		return true
	}
	return false
}

type ResourceInput struct {
	Title       string
	Description *string
	Type        string
	FileURL     *string
	FileAssetID *string
	LinkURL     *string
}

// checkResourcePayload enforces the type-dependent required field: a
// file resource needs an uploaded file, a link resource needs a URL, a
// note carries its body in the description.
func checkResourcePayload(in ResourceInput) error {
	switch in.Type {
	case models.ResourceFile:
		if in.FileURL == nil {
			return ErrBadRequest("A file is required for file resources")
		}
	case models.ResourceLink:
		if in.LinkURL == nil || strings.TrimSpace(*in.LinkURL) == "" {
			return ErrBadRequest("A link URL is required for link resources")
		}
	case models.ResourceNote:
		if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
			return ErrBadRequest("A description is required for note resources")
		}
	default:
		return ErrBadRequest("Invalid resource type")
	}
	return nil
}

// CreateResource stores a resource. Titles are unique within a group;
// the index on (group_id, title) backs the conflict check.
func CreateResource(db *sqlx.DB, groupID, uploadedBy string, in ResourceInput) (models.Resource, error) {
	if err := checkResourcePayload(in); err != nil {
		return models.Resource{}, err
	}
	now := time.Now().UTC()
	resource := models.Resource{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Type:        in.Type,
		GroupID:     groupID,
		UploadedBy:  uploadedBy,
		FileURL:     in.FileURL,
		FileAssetID: in.FileAssetID,
		LinkURL:     in.LinkURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := db.Exec(`
INSERT INTO resources (id, title, description, type, group_id, uploaded_by, file_url, file_asset_id, link_url, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, resource.ID, resource.Title, resource.Description, resource.Type, resource.GroupID,
		resource.UploadedBy, resource.FileURL, resource.FileAssetID, resource.LinkURL, now)
	if IsUniqueViolation(err) {
		return models.Resource{}, ErrConflict("A resource with this title already exists in the group")
	}
	if err != nil {
		return models.Resource{}, err
	}
	return resource, nil
}

func ResourceByID(db *sqlx.DB, resourceID string) (models.Resource, error) {
	var resource models.Resource
	err := db.Get(&resource, `SELECT * FROM resources WHERE id = $1`, resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Resource{}, ErrNotFound("Resource not found")
	}
	return resource, err
}

// ResourceOrder maps the caller-facing sort keys onto ORDER BY clauses.
// Unknown keys fall back to newest-first.
func ResourceOrder(sortBy string) string {
	switch sortBy {
	case "oldest":
		return "created_at ASC"
	case "title":
		return "lower(title) ASC"
	default:
		return "created_at DESC"
	}
}

type ResourceView struct {
	ID          string    `db:"id" json:"resourceId"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Type        string    `db:"type" json:"type"`
	UploadedBy  string    `db:"uploaded_by" json:"uploadedBy"`
	FileURL     *string   `db:"file_url" json:"fileUrl"`
	LinkURL     *string   `db:"link_url" json:"linkUrl"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ResourcesByGroup lists a group's resources, optionally filtered by
// type. sortBy goes through ResourceOrder, never into the query raw.
func ResourcesByGroup(db *sqlx.DB, groupID, resourceType, sortBy string) ([]ResourceView, error) {
	if resourceType != "" && !validResourceType(resourceType) {
		return nil, ErrBadRequest("Invalid resource type")
	}
	query := `
SELECT id, title, description, type, uploaded_by, file_url, link_url, created_at
FROM resources
WHERE group_id = $1
`
	args := []any{groupID}
	if resourceType != "" {
		query += ` AND type = $2`
		args = append(args, resourceType)
	}
	query += ` ORDER BY ` + ResourceOrder(sortBy)
	items := []ResourceView{}
	err := db.Select(&items, query, args...)
	return items, err
}

// DeleteResource removes the row after its stored file (if any) is
// gone. Blob deletion happens first so a failed delete leaves the
// record intact and retryable.
func DeleteResource(db *sqlx.DB, blobs BlobStore, resource models.Resource) error {
	if resource.FileAssetID != nil {
		if err := blobs.Delete(*resource.FileAssetID); err != nil {
			return WrapError(err, "delete resource file")
		}
	}
	_, err := db.Exec(`DELETE FROM resources WHERE id = $1`, resource.ID)
	return err
}

package services

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"studyhive-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	BucketSubmissions = "submissions"
	BucketResources   = "resources"
)

type BlobRef struct {
	ID  string
	URL string
}

// BlobStore persists uploaded files and hands back stable references.
type BlobStore interface {
	Save(bucket, contentType, filename, ownerID string, body io.Reader) (BlobRef, error)
	Delete(assetID string) error
}

// DiskStore keeps blobs on the local filesystem under BasePath/bucket
// and tracks them in media_assets.
type DiskStore struct {
	DB       *sqlx.DB
	BasePath string
}

func ensureStoragePath(base, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DiskStore) Save(bucket, contentType, filename, ownerID string, body io.Reader) (BlobRef, error) {
	assetID := uuid.NewString()
	storageKey := assetID
	bucketPath, err := ensureStoragePath(s.BasePath, bucket)
	if err != nil {
		return BlobRef{}, err
	}
	targetPath := filepath.Join(bucketPath, storageKey)

	file, err := os.Create(targetPath)
	if err != nil {
		return BlobRef{}, err
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, body)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return BlobRef{}, err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return BlobRef{}, ErrBadRequest("Uploaded file is empty")
	}
	sha := hex.EncodeToString(hasher.Sum(nil))

	_, err = s.DB.Exec(`
INSERT INTO media_assets (id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, assetID, ownerID, bucket, storageKey, filename, contentType, size, sha, time.Now().UTC())
	if err != nil {
		_ = os.Remove(targetPath)
		return BlobRef{}, err
	}
	return BlobRef{ID: assetID, URL: BuildAssetURL(assetID)}, nil
}

func (s *DiskStore) Delete(assetID string) error {
	var asset models.MediaAsset
	err := s.DB.Get(&asset, `SELECT * FROM media_assets WHERE id = $1`, assetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.DB.Exec(`DELETE FROM media_assets WHERE id = $1`, assetID); err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(s.BasePath, asset.Bucket, asset.StorageKey))
	return nil
}

// Open returns the asset record and a reader over its content, for the
// content-serving endpoint.
func (s *DiskStore) Open(assetID string) (models.MediaAsset, io.ReadCloser, error) {
	var asset models.MediaAsset
	err := s.DB.Get(&asset, `SELECT * FROM media_assets WHERE id = $1`, assetID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MediaAsset{}, nil, ErrNotFound("Media asset not found")
	}
	if err != nil {
		return models.MediaAsset{}, nil, err
	}
	file, err := os.Open(filepath.Join(s.BasePath, asset.Bucket, asset.StorageKey))
	if err != nil {
		return models.MediaAsset{}, nil, ErrNotFound("Media asset not found")
	}
	return asset, file, nil
}

func BuildAssetURL(assetID string) string {
	return "/api/v1/media/assets/" + assetID + "/content"
}

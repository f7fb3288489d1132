package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/evmarket/evmarketd/internal/domain"
)

// multipartThreshold is the payload size above which uploads switch to the
// multipart path.
const multipartThreshold = 5 * 1024 * 1024

// Stager stages listing images in object storage before they are forwarded
// to the marketplace. Staged copies survive upstream failures, so a seller
// can retry listing creation without re-uploading photos.
type Stager struct {
	writer  domain.BlobWriter
	deleter domain.BlobDeleter
	audit   domain.AuditStore
}

// NewStager creates a Stager.
func NewStager(writer domain.BlobWriter, deleter domain.BlobDeleter, audit domain.AuditStore) *Stager {
	return &Stager{
		writer:  writer,
		deleter: deleter,
		audit:   audit,
	}
}

// StageImages uploads each image under listings/{userID}/ with a fresh UUID
// key and returns the staged paths in input order. The staging event is
// recorded in the audit log.
func (s *Stager) StageImages(ctx context.Context, userID string, images []domain.ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, len(images))
	for i, img := range images {
		p := stagePath(userID, img.FileName)

		var err error
		if len(img.Data) > multipartThreshold {
			err = s.writer.PutMultipart(ctx, p, bytes.NewReader(img.Data), multipartThreshold)
		} else {
			err = s.writer.Put(ctx, p, bytes.NewReader(img.Data), img.ContentType)
		}
		if err != nil {
			return nil, fmt.Errorf("s3blob: stage image %d (%s): %w", i, img.FileName, err)
		}
		paths = append(paths, p)
	}

	if err := s.audit.Log(ctx, "listing.images_staged", map[string]any{
		"user_id": userID,
		"count":   len(paths),
		"paths":   paths,
	}); err != nil {
		return paths, fmt.Errorf("s3blob: stage images audit log: %w", err)
	}

	return paths, nil
}

// Discard removes staged images. Missing objects are not an error, so a
// partial cleanup can be retried.
func (s *Stager) Discard(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := s.deleter.Delete(ctx, p); err != nil {
			return fmt.Errorf("s3blob: discard staged image %s: %w", p, err)
		}
	}
	return nil
}

// stagePath builds the object key for a staged image, keeping the original
// file extension for content-type sniffing by downstream consumers.
func stagePath(userID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("listings/%s/%s%s", userID, uuid.New().String(), ext)
}

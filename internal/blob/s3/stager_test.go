package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
)

// memWriter records uploads in memory.
type memWriter struct {
	objects   map[string][]byte
	multipart []string
}

func newMemWriter() *memWriter {
	return &memWriter{objects: make(map[string][]byte)}
}

func (w *memWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return err
	}
	w.objects[path] = buf.Bytes()
	return nil
}

func (w *memWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	w.multipart = append(w.multipart, path)
	return w.Put(ctx, path, data, "")
}

// memDeleter records deletions.
type memDeleter struct {
	deleted []string
}

func (d *memDeleter) Delete(ctx context.Context, path string) error {
	d.deleted = append(d.deleted, path)
	return nil
}

// memAudit records audit events.
type memAudit struct {
	events []string
}

func (a *memAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func (a *memAudit) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func TestStageImagesPathsAndAudit(t *testing.T) {
	writer := newMemWriter()
	audit := &memAudit{}
	stager := NewStager(writer, &memDeleter{}, audit)

	paths, err := stager.StageImages(context.Background(), "user-1", []domain.ImageUpload{
		{FileName: "Front.JPG", ContentType: "image/jpeg", Data: []byte("front")},
		{FileName: "side.png", ContentType: "image/png", Data: []byte("side")},
	})
	check.Nil(t, err)
	check.Equal(t, 2, len(paths))

	// Keys live under the user's prefix with the lowercased extension kept.
	check.True(t, strings.HasPrefix(paths[0], "listings/user-1/"))
	check.True(t, strings.HasSuffix(paths[0], ".jpg"))
	check.True(t, strings.HasSuffix(paths[1], ".png"))
	check.NotEqual(t, paths[0], paths[1])

	check.Equal(t, []byte("front"), writer.objects[paths[0]])
	check.Equal(t, []byte("side"), writer.objects[paths[1]])
	check.Equal(t, 0, len(writer.multipart))
	check.Equal(t, []string{"listing.images_staged"}, audit.events)
}

func TestStageImagesLargePayloadUsesMultipart(t *testing.T) {
	writer := newMemWriter()
	stager := NewStager(writer, &memDeleter{}, &memAudit{})

	big := make([]byte, multipartThreshold+1)
	paths, err := stager.StageImages(context.Background(), "user-2", []domain.ImageUpload{
		{FileName: "pack.jpg", ContentType: "image/jpeg", Data: big},
	})
	check.Nil(t, err)
	check.Equal(t, 1, len(writer.multipart))
	check.Equal(t, paths[0], writer.multipart[0])
}

func TestStageImagesEmpty(t *testing.T) {
	stager := NewStager(newMemWriter(), &memDeleter{}, &memAudit{})

	paths, err := stager.StageImages(context.Background(), "user-3", nil)
	check.Nil(t, err)
	check.Equal(t, 0, len(paths))
}

func TestDiscardDeletesAll(t *testing.T) {
	deleter := &memDeleter{}
	stager := NewStager(newMemWriter(), deleter, &memAudit{})

	err := stager.Discard(context.Background(), []string{"listings/u/a.jpg", "listings/u/b.jpg"})
	check.Nil(t, err)
	check.Equal(t, []string{"listings/u/a.jpg", "listings/u/b.jpg"}, deleter.deleted)
}

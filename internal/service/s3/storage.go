// storage.go
package s3

import (
	"context"
	"io"
)

// S3Object определяет интерфейс для объектов S3
type S3Object interface {
	io.ReadCloser
	ContentLength() int64
	ContentType() string
}

// s3Object реализует интерфейс S3Object
type s3Object struct {
	io.ReadCloser
	contentLength int64
	contentType   string
}

func (o *s3Object) ContentLength() int64 {
	return o.contentLength
}

func (o *s3Object) ContentType() string {
	return o.contentType
}

// Storage определяет интерфейс для работы с S3-совместимым хранилищем.
// Загрузка идёт одним куском: сначала пишутся байты, потом подтверждаются
// метаданные, параллельных частей нет.
type Storage interface {
	UploadBytes(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) (S3Object, error)
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
	// PublicURL возвращает неаутентифицированный URL объекта;
	// IsPublic проверяет HEAD-запросом, отдаётся ли объект без токена.
	PublicURL(key string) string
	IsPublic(ctx context.Context, key string) bool
}

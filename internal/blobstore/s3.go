package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Options — параметры подключения к S3-совместимому хранилищу.
type S3Options struct {
	// Endpoint (пусто — AWS)
	Endpoint string
	Region   string
	Bucket   string
	// Статические ключи (пусто — стандартная цепочка credentials AWS)
	AccessKey string
	SecretKey string
	// Path-style адресация (MinIO)
	ForcePathStyle bool
	// HTTP-клиент SDK (nil — http.DefaultClient)
	HTTPClient *http.Client
}

// S3Store хранит объекты в бакете S3-совместимого хранилища.
type S3Store struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	logger   *slog.Logger
}

// NewS3Store создаёт хранилище поверх aws-sdk-go.
func NewS3Store(opts S3Options, logger *slog.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("не указан бакет S3")
	}

	awsCfg := &aws.Config{
		Region:           aws.String(opts.Region),
		S3ForcePathStyle: aws.Bool(opts.ForcePathStyle),
	}
	if opts.Endpoint != "" {
		awsCfg.Endpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}
	if opts.HTTPClient != nil {
		awsCfg.HTTPClient = opts.HTTPClient
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии S3: %w", err)
	}

	client := s3.New(sess)
	return &S3Store{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		bucket:   opts.Bucket,
		logger: logger.With(
			slog.String("component", "blobstore.s3"),
			slog.String("bucket", opts.Bucket),
		),
	}, nil
}

// Save загружает поток в бакет (multipart для больших файлов).
// При превышении лимита загрузка прерывается и объект удаляется.
func (s *S3Store) Save(ctx context.Context, key string, r io.Reader, limit int64) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	lr := newLimitedReader(r, limit)
	counter := &countingReader{r: lr}

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        counter,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		if lr.exceeded {
			s.deleteQuietly(key)
			return 0, ErrTooLarge
		}
		return 0, fmt.Errorf("ошибка загрузки объекта %s в S3: %w", key, err)
	}

	return counter.n, nil
}

// Open открывает объект для потокового чтения.
func (s *S3Store) Open(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения объекта %s из S3: %w", key, err)
	}

	return &Object{Body: out.Body, Size: aws.Int64Value(out.ContentLength)}, nil
}

// Delete удаляет объект из бакета.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("ошибка удаления объекта %s из S3: %w", key, err)
	}
	return nil
}

func (s *S3Store) deleteQuietly(key string) {
	if err := s.Delete(context.Background(), key); err != nil {
		s.logger.Warn("Не удалось удалить частично загруженный объект",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

// countingReader считает прочитанные байты.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

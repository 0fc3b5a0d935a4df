package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docdesk/internal/config"
	"docdesk/internal/port"
)

// linkExpiry bounds the presigned download link returned as the save location.
const linkExpiry = time.Hour

type s3Sink struct {
	bucket    string
	prefix    string
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	now       func() time.Time
}

// NewS3Sink creates a DownloadSink that archives exports in S3 and returns a presigned link.
func NewS3Sink(cfg *config.S3Config) (port.DownloadSink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Sink{
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
		now:       time.Now,
	}, nil
}

// objectKey places exports under <prefix>/<yyyy-mm-dd>/<unix nanos>_<filename>.
func objectKey(prefix string, at time.Time, filename string) string {
	name := fmt.Sprintf("%d_%s", at.UnixNano(), path.Base("/"+filename))
	return path.Join(prefix, at.UTC().Format("2006-01-02"), name)
}

func (s *s3Sink) Save(ctx context.Context, input port.SaveInput) (*port.SaveOutput, error) {
	key := objectKey(s.prefix, s.now(), input.Filename)
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(input.Content),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base("/"+input.Filename))),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload: %w", err)
	}

	link, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(linkExpiry))
	if err != nil {
		return nil, fmt.Errorf("s3 presign: %w", err)
	}
	return &port.SaveOutput{Location: link.URL}, nil
}

package utils

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
)

// R2Client wraps the S3 client + bucket name so callers get the same
// two-value return they had with NewGCSClient.
type R2Client struct {
	S3     *s3.Client
	Bucket string
}

// NewCloudClient is kept with the NewGCSClient signature so controller code
// stays the same while photo storage migrates to R2.
func NewCloudClient(c *gin.Context) (*R2Client, string, error) {
	bucket := os.Getenv("R2_BUCKET")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	endpoint := os.Getenv("R2_ENDPOINT") // https://<account-id>.r2.cloudflarestorage.com

	if bucket == "" || accessKey == "" || secretKey == "" || endpoint == "" {
		return nil, "", fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Client{S3: client, Bucket: bucket}, bucket, nil
}

func publicURL(objectName string) string {
	domain := strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/")
	return domain + "/" + objectName
}

// UploadCompletionPhotosToCloud uploads a tradesman's completion photos for a
// job to R2 and returns their public URLs.
func UploadCompletionPhotosToCloud(
	ctx context.Context,
	r2 *R2Client,
	jobID string,
	files []*multipart.FileHeader,
) ([]string, error) {

	if len(files) < 1 || len(files) > 8 {
		return nil, fmt.Errorf("photos must be 1 to 8")
	}

	urls := make([]string, 0, len(files))

	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if ext == "" {
			ext = ".bin"
		}
		objectName := fmt.Sprintf("jobs/%s/completion/%d%s", jobID, time.Now().UnixNano(), ext)

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = mime.TypeByExtension(ext)
		}
		if ct == "" {
			ct = "application/octet-stream"
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}

		_, err = r2.S3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(r2.Bucket),
			Key:         aws.String(objectName),
			Body:        f,
			ContentType: aws.String(ct),
		})
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", fh.Filename, err)
		}

		urls = append(urls, publicURL(objectName))
	}

	return urls, nil
}

// ObjectNameFromURL reverses publicURL, giving back the bucket key.
func ObjectNameFromURL(url string) string {
	domain := strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/")
	return strings.TrimPrefix(strings.TrimPrefix(url, domain), "/")
}

// DeleteCloudObjects removes uploaded objects, best effort, first error wins.
func DeleteCloudObjects(ctx context.Context, r2 *R2Client, objectNames []string) error {
	var firstErr error
	for _, obj := range objectNames {
		if obj == "" {
			continue
		}
		_, err := r2.S3.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(r2.Bucket),
			Key:    aws.String(obj),
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", obj, err)
		}
	}
	return firstErr
}

package snapshot

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/treepatch/internal/errors"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ S3API = (*s3.Client)(nil)

// Object metadata keys.
const (
	metaSeq     = "treepatch-seq"
	metaCreated = "treepatch-created"
)

// S3Store stores snapshots as objects in an S3 bucket.
//
// Example usage:
//
//	client := snapshot.NewS3Client(snapshot.S3Options{Region: "us-east-1"})
//	store := snapshot.NewS3Store(client, "my-bucket", "snapshots/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

// NewS3Store creates a store writing under prefix in bucket.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads the snapshot markup as a text/html object.
func (s *S3Store) Put(ctx context.Context, snap *Snapshot) error {
	if err := ValidateKey(snap.Key); err != nil {
		return err
	}
	created := snap.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + snap.Key),
		Body:        bytes.NewReader(snap.Markup),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			metaSeq:     strconv.FormatUint(snap.Seq, 10),
			metaCreated: created.Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New(errors.CodeStorage).WithOp("put").Wrap(err)
	}
	return nil
}

// Get downloads a snapshot.
func (s *S3Store) Get(ctx context.Context, key string) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if stderrors.As(err, &nsk) {
			return nil, notFound(key)
		}
		return nil, errors.New(errors.CodeStorage).WithOp("get").Wrap(err)
	}
	defer out.Body.Close()

	markup, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New(errors.CodeStorage).WithOp("get").Wrap(err)
	}

	snap := &Snapshot{Key: key, Markup: markup}
	if v, ok := out.Metadata[metaSeq]; ok {
		snap.Seq, _ = strconv.ParseUint(v, 10, 64)
	}
	if v, ok := out.Metadata[metaCreated]; ok {
		snap.Created, _ = time.Parse(time.RFC3339, v)
	} else if out.LastModified != nil {
		snap.Created = *out.LastModified
	}
	return snap, nil
}

// Delete removes a snapshot.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		return errors.New(errors.CodeStorage).WithOp("delete").Wrap(err)
	}
	return nil
}

// List pages through the bucket listing under the store prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.New(errors.CodeStorage).WithOp("list").Wrap(err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, strings.TrimPrefix(*obj.Key, s.prefix))
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region string

	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint string

	// UsePathStyle addresses buckets as path segments instead of subdomains.
	UsePathStyle bool

	// Static credentials. When AccessKeyID is empty they are read from
	// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewS3Client builds an S3 client from opts.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	o := s3.Options{
		Region:       region,
		UsePathStyle: opts.UsePathStyle,
		Credentials:  staticCredentials(opts),
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return s3.New(o)
}

func staticCredentials(opts S3Options) aws.CredentialsProvider {
	id, secret, token := opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken
	source := "treepatch-config"
	if id == "" {
		id = os.Getenv("AWS_ACCESS_KEY_ID")
		secret = os.Getenv("AWS_SECRET_ACCESS_KEY")
		token = os.Getenv("AWS_SESSION_TOKEN")
		source = "environment"
	}

	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New(errors.CodeStorage).
				WithDetail("no S3 credentials in config or environment")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          source,
		}, nil
	})
}

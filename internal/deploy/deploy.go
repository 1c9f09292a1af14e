// Package deploy uploads the build output to S3.
package deploy

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/seriva/microtastic/internal/config"
	"github.com/seriva/microtastic/internal/errors"
)

// ObjectPutter is the slice of the S3 client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Upload describes one uploaded object.
type Upload struct {
	Key  string
	Size int64
}

// Publisher syncs a directory of built files into an S3 bucket.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string

	// OnUpload, if set, is called after each successful upload.
	OnUpload func(Upload)
}

// NewPublisher creates a publisher over an existing client.
func NewPublisher(client ObjectPutter, bucket, prefix string) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix}
}

// NewFromConfig builds a publisher from the project deploy settings, using
// the default AWS credential chain.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Publisher, error) {
	if cfg.Deploy.Bucket == "" {
		return nil, errors.New("E160")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Deploy.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Deploy.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, errors.New("E161").Wrap(err)
	}

	return NewPublisher(s3.NewFromConfig(awsCfg), cfg.Deploy.Bucket, cfg.Deploy.Prefix), nil
}

// Publish walks dir and uploads every file under the configured prefix,
// keys sorted so output is deterministic. index.html goes last, so a
// half-finished deploy never references missing assets.
func (p *Publisher) Publish(ctx context.Context, dir string) ([]Upload, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E162").
				WithDetail(dir + " does not exist")
		}
		return nil, errors.New("E161").Wrap(err)
	}
	if len(files) == 0 {
		return nil, errors.New("E162")
	}

	sort.Slice(files, func(i, j int) bool {
		ii, ji := isIndex(dir, files[i]), isIndex(dir, files[j])
		if ii != ji {
			return ji
		}
		return files[i] < files[j]
	})

	var uploads []Upload
	for _, path := range files {
		up, err := p.put(ctx, dir, path)
		if err != nil {
			return uploads, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func (p *Publisher) put(ctx context.Context, dir, path string) (Upload, error) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return Upload{}, errors.New("E161").Wrap(err)
	}
	key := p.key(rel)

	f, err := os.Open(path)
	if err != nil {
		return Upload{}, errors.New("E161").Wrap(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Upload{}, errors.New("E161").Wrap(err)
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(path)),
		CacheControl:  aws.String(cacheControl(rel)),
	})
	if err != nil {
		return Upload{}, errors.New("E161").
			WithDetail("uploading " + key).
			Wrap(err)
	}

	up := Upload{Key: key, Size: info.Size()}
	if p.OnUpload != nil {
		p.OnUpload(up)
	}
	return up, nil
}

func (p *Publisher) key(rel string) string {
	key := filepath.ToSlash(rel)
	if p.prefix == "" {
		return key
	}
	return strings.TrimSuffix(p.prefix, "/") + "/" + key
}

func isIndex(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel == "index.html"
}

// contentType resolves the MIME type from the extension, with fallbacks
// for the types that matter to a deployed app.
func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".js", ".mjs":
		return "application/javascript"
	case ".json", ".map":
		return "application/json"
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// cacheControl gives hashed assets an immutable year and everything else
// a short revalidation window.
func cacheControl(rel string) string {
	if rel == "index.html" || rel == "manifest.json" {
		return "no-cache"
	}
	return fmt.Sprintf("public, max-age=%d, immutable", 365*24*3600)
}

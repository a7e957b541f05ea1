package node

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kattaio/katta/common"
)

const archiveSuffix = ".tar.zst"

// fetcher copies shard content from its source into the node's work
// directory. Sources are local paths or s3:// URIs; .tar.zst archives
// are unpacked, plain directories copied. Reads are throttled so a
// deploy burst cannot starve running queries of disk bandwidth.
type fetcher struct {
	workDir  string
	limiter  *rate.Limiter
	s3       s3Client
	s3Config S3Config
}

// s3Client narrows minio.Client to the single call the fetcher makes.
type s3Client interface {
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func newFetcher(workDir string, throttleBytesPerSec int, s3cfg S3Config) *fetcher {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if throttleBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(throttleBytesPerSec), throttleBytesPerSec)
	}
	return &fetcher{workDir: workDir, limiter: limiter, s3Config: s3cfg}
}

// Fetch materializes the shard under workDir/<shard> and returns the
// local directory.
func (f *fetcher) Fetch(ctx context.Context, shard, source string) (string, error) {
	dst := filepath.Join(f.workDir, shard)
	// leftovers from an interrupted fetch are not trusted
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("clean %s: %w", dst, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dst, err)
	}
	common.Log().Info("fetching shard",
		zap.String("shard", shard), zap.String("source", source))

	if strings.HasPrefix(source, "s3://") {
		return dst, f.fetchS3(ctx, source, dst)
	}
	return dst, f.fetchLocal(ctx, source, dst)
}

func (f *fetcher) fetchLocal(ctx context.Context, source, dst string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat %s: %w", source, err)
	}
	if info.IsDir() {
		return f.copyDir(ctx, source, dst)
	}
	if !strings.HasSuffix(source, archiveSuffix) {
		return fmt.Errorf("unsupported shard source %s", source)
	}
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer in.Close()
	return f.unpack(ctx, in, dst)
}

func (f *fetcher) fetchS3(ctx context.Context, source, dst string) error {
	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	client, err := f.s3Client()
	if err != nil {
		return err
	}
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("s3 get %s: %w", source, err)
	}
	defer obj.Close()
	if !strings.HasSuffix(key, archiveSuffix) {
		return fmt.Errorf("unsupported shard source %s", source)
	}
	return f.unpack(ctx, obj, dst)
}

func (f *fetcher) s3Client() (s3Client, error) {
	if f.s3 != nil {
		return f.s3, nil
	}
	client, err := minio.New(f.s3Config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(f.s3Config.AccessKey, f.s3Config.SecretKey, ""),
		Secure: f.s3Config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	f.s3 = &minioAdapter{client}
	return f.s3, nil
}

type minioAdapter struct {
	*minio.Client
}

func (m *minioAdapter) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return m.Client.GetObject(ctx, bucket, key, opts)
}

// unpack streams a zstd-compressed tar into dst.
func (f *fetcher) unpack(ctx context.Context, src io.Reader, dst string) error {
	zr, err := zstd.NewReader(f.throttled(ctx, src))
	if err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		name := filepath.Clean(hdr.Name)
		if name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
			return fmt.Errorf("tar: entry escapes archive: %s", hdr.Name)
		}
		target := filepath.Join(dst, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

func (f *fetcher) copyDir(ctx context.Context, src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, f.throttled(ctx, in))
		return err
	})
}

func (f *fetcher) throttled(ctx context.Context, r io.Reader) io.Reader {
	return &throttledReader{ctx: ctx, r: r, limiter: f.limiter}
}

type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	// cap the chunk at the limiter burst so WaitN never fails
	if b := t.limiter.Burst(); b > 0 && len(p) > b {
		p = p[:b]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

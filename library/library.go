// Package library manages the local song directory and its sync with an
// S3 bucket, so every conductor in a group can share one set of songs.
package library

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/tactuslabs/tactus/util"
)

// Library is a directory of .bin songs, optionally backed by a bucket.
type Library struct {
	Dir    string
	Bucket string
}

// List returns the song names (without extension) available locally.
func (l *Library) List() []string {
	var names []string
	for _, path := range util.GatherSongPaths(l.Dir, 0) {
		names = append(names, strings.TrimSuffix(filepath.Base(path), ".bin"))
	}
	return names
}

// PathFor returns the local path for a song name.
func (l *Library) PathFor(name string) string {
	return filepath.Join(l.Dir, name+".bin")
}

func (l *Library) client() (*s3.S3, error) {
	if l.Bucket == "" {
		return nil, errors.New("no bucket configured")
	}
	cfg := aws.Config{}
	// point at a local S3 clone when set (dev setup)
	if endpoint := os.Getenv("TACTUS_S3_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = &endpoint
		cfg.Region = aws.String("localhost")
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating S3 session")
	}
	return s3.New(sess), nil
}

// Pull downloads every .bin object in the bucket into the local dir,
// returning the downloaded names.
func (l *Library) Pull() ([]string, error) {
	client, err := l.client()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return nil, err
	}

	var pulled []string
	input := &s3.ListObjectsV2Input{Bucket: aws.String(l.Bucket)}
	for {
		out, err := client.ListObjectsV2(input)
		if err != nil {
			return pulled, errors.Wrap(err, "listing bucket")
		}
		for _, obj := range out.Contents {
			key := aws.StringValue(obj.Key)
			if !strings.HasSuffix(key, ".bin") {
				continue
			}
			body, err := client.GetObject(&s3.GetObjectInput{
				Bucket: aws.String(l.Bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return pulled, errors.Wrapf(err, "fetching %v", key)
			}
			data, err := io.ReadAll(body.Body)
			body.Body.Close()
			if err != nil {
				return pulled, errors.Wrapf(err, "reading %v", key)
			}
			if err := os.WriteFile(filepath.Join(l.Dir, filepath.Base(key)), data, 0644); err != nil {
				return pulled, errors.Wrapf(err, "writing %v", key)
			}
			pulled = append(pulled, key)
		}
		if !aws.BoolValue(out.IsTruncated) {
			return pulled, nil
		}
		input.ContinuationToken = out.NextContinuationToken
	}
}

// Push uploads every local song to the bucket.
func (l *Library) Push() ([]string, error) {
	client, err := l.client()
	if err != nil {
		return nil, err
	}

	var pushed []string
	for _, path := range util.GatherSongPaths(l.Dir, 0) {
		data, err := os.ReadFile(path)
		if err != nil {
			return pushed, errors.Wrapf(err, "reading %v", path)
		}
		key := filepath.Base(path)
		_, err = client.PutObject(&s3.PutObjectInput{
			Bucket: aws.String(l.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return pushed, errors.Wrapf(err, "uploading %v", key)
		}
		pushed = append(pushed, key)
	}
	return pushed, nil
}

package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	lru "github.com/hashicorp/golang-lru"

	"github.com/cleansweep/cleansweep-cron/cleansweep/database/models"
)

const digestCacheSize = 64

// SnapshotService uploads the computed leaderboard result set to an
// S3-compatible bucket after each rebuild, for audit and console export. A
// digest cache skips uploads whose content matches the previous run.
type SnapshotService struct {
	client  *s3.Client
	bucket  string
	prefix  string
	digests *lru.Cache
}

func NewSnapshotService(key, secret, region, bucket, endpoint, prefix string) *SnapshotService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if endpoint != "" {
			return aws.Endpoint{URL: endpoint}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load archive storage config: %v", err))
	}

	cache, _ := lru.New(digestCacheSize)

	return &SnapshotService{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		digests: cache,
	}
}

// snapshotDocument is the archived JSON shape.
type snapshotDocument struct {
	ComputedAt time.Time                  `json:"computed_at"`
	EntryCount int                        `json:"entry_count"`
	Entries    []*models.LeaderboardEntry `json:"entries"`
}

func (s *SnapshotService) ArchiveLeaderboard(ctx context.Context, computedAt time.Time, entries []*models.LeaderboardEntry) error {
	doc := snapshotDocument{
		ComputedAt: computedAt,
		EntryCount: len(entries),
		Entries:    entries,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard snapshot: %w", err)
	}

	key := s.objectKey(computedAt)
	latestKey := s.latestKey()

	// Entries carry computed_at, so identical source data still differs
	// per run; the digest covers entries only.
	entriesJSON, err := json.Marshal(stripTimestamps(entries))
	if err != nil {
		return fmt.Errorf("failed to digest leaderboard snapshot: %w", err)
	}
	sum := sha256.Sum256(entriesJSON)
	digest := hex.EncodeToString(sum[:])

	if prev, ok := s.digests.Get(latestKey); ok && prev == digest {
		slog.Debug("Leaderboard snapshot unchanged, skipping upload",
			slog.String("type", "sys"),
			slog.String("digest", digest[:12]))
		return nil
	}

	contentType := "application/json"
	for _, k := range []string{key, latestKey} {
		k := k
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &s.bucket,
			Key:         &k,
			Body:        bytes.NewReader(body),
			ContentType: &contentType,
		})
		if err != nil {
			return fmt.Errorf("failed to upload snapshot %s: %w", k, err)
		}
	}

	s.digests.Add(latestKey, digest)

	slog.Info("Leaderboard snapshot archived",
		slog.String("type", "sys"),
		slog.String("key", key),
		slog.Int("entries", len(entries)))
	return nil
}

func (s *SnapshotService) objectKey(computedAt time.Time) string {
	name := fmt.Sprintf("leaderboard-%s.json", computedAt.UTC().Format("20060102T150405Z"))
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *SnapshotService) latestKey() string {
	if s.prefix == "" {
		return "leaderboard-latest.json"
	}
	return s.prefix + "/leaderboard-latest.json"
}

// stripTimestamps zeroes ComputedAt so the digest reflects content only.
func stripTimestamps(entries []*models.LeaderboardEntry) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
		out[i].ComputedAt = time.Time{}
	}
	return out
}

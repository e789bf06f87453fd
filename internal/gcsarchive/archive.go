// Package gcsarchive stores the raw provider payload of each sync
// cycle in a GCS bucket, for audit and replay. Objects land under
// syncs/<user_id>/<timestamp>.json.
package gcsarchive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/provider"
)

// Archive writes sync payloads to one bucket.
type Archive struct {
	client *storage.Client
	bucket string
	log    zerolog.Logger
}

// New creates an archive backed by the given bucket. It assumes
// Application Default Credentials are configured.
func New(ctx context.Context, bucket string, log zerolog.Logger) (*Archive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcsarchive: create storage client: %w", err)
	}
	return &Archive{client: client, bucket: bucket, log: log}, nil
}

// Close releases the storage client.
func (a *Archive) Close() error {
	return a.client.Close()
}

type payload struct {
	UserID       string                    `json:"user_id"`
	FetchedAt    time.Time                 `json:"fetched_at"`
	Accounts     []provider.RawAccount     `json:"accounts"`
	Transactions []provider.RawTransaction `json:"transactions"`
}

// ArchiveSync serializes the fetched batch and uploads it. Returns the
// gs:// URI of the written object.
func (a *Archive) ArchiveSync(ctx context.Context, userID string, accounts []provider.RawAccount, transactions []provider.RawTransaction) (string, error) {
	now := time.Now().UTC()
	objectName := fmt.Sprintf("syncs/%s/%s.json", userID, now.Format("20060102T150405Z"))

	data, err := json.Marshal(payload{
		UserID:       userID,
		FetchedAt:    now,
		Accounts:     accounts,
		Transactions: transactions,
	})
	if err != nil {
		return "", fmt.Errorf("gcsarchive: marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcsarchive: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcsarchive: finalize upload: %w", err)
	}

	uri := "gs://" + a.bucket + "/" + objectName
	a.log.Debug().Str("uri", uri).Int("bytes", len(data)).Msg("Archived sync payload")
	return uri, nil
}

// Fetch downloads an archived payload by its gs:// URI.
func (a *Archive) Fetch(ctx context.Context, uri string) ([]provider.RawAccount, []provider.RawTransaction, error) {
	bucket, object, err := splitURI(uri)
	if err != nil {
		return nil, nil, err
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("gcsarchive: open object %s: %w", uri, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("gcsarchive: read object %s: %w", uri, err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("gcsarchive: decode payload %s: %w", uri, err)
	}
	return p.Accounts, p.Transactions, nil
}

func splitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("gcsarchive: invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("gcsarchive: invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
)

const reportPrefix = "reports"

// ReportKey is where a report of kind for orgID generated at ts is stored
func ReportKey(kind, orgID string, ts time.Time) string {
	return path.Join(reportPrefix, kind, sanitizeSegment(orgID), ts.UTC().Format("20060102T150405Z")+".json")
}

// ExportReport uploads report as indented JSON and returns its key
func ExportReport(ctx context.Context, store ObjectStorage, kind, orgID string, report any, ts time.Time) (string, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s report: %w", kind, err)
	}

	key := ReportKey(kind, orgID, ts)
	if err := store.UploadObject(ctx, key, payload); err != nil {
		return "", err
	}
	return key, nil
}

// LatestReport returns the key of the newest report of kind for orgID, or "" when none exist
func LatestReport(ctx context.Context, store ObjectStorage, kind, orgID string) (string, error) {
	prefix := path.Join(reportPrefix, kind, sanitizeSegment(orgID)) + "/"
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return "", err
	}

	var latest string
	for _, obj := range objects {
		// timestamped names sort chronologically
		if obj.Key > latest {
			latest = obj.Key
		}
	}
	return latest, nil
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

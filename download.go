package knackpy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DownloadOptions controls a Download call.
type DownloadOptions struct {
	// OutDir is the directory files are written to. Defaults to "_downloads".
	OutDir string
	// LabelKeys lists field keys whose values are prepended to each
	// attachment filename, separated by underscores, in the order given.
	LabelKeys []string
	// Progress, when set, receives running byte counts for each transfer.
	Progress func(bytesWritten, totalBytes int64)
}

// Download downloads the file or image attachments held in one field of a
// container's records and returns the number of files written.
//
// The field identifier is matched against the container object's field keys
// (exact) and names (case-insensitive); no match is an *UnknownFieldError.
// Records are read from the cache, fetched first if the container has not been
// queried yet.
//
// The batch is strictly sequential and aborts on the first failed transfer
// with a *DownloadError; files written before the failure stay on disk.
func (a *App) Download(ctx context.Context, identifier, field string, opts *DownloadOptions) (int, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "_downloads"
	}

	container, err := a.FindContainer(identifier)
	if err != nil {
		return 0, err
	}

	def, ok := a.findFieldDef(field, container.ObjKey)
	if !ok {
		return 0, &UnknownFieldError{Field: field, ObjKey: container.ObjKey}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	records, _, err := a.getOrFetch(ctx, identifier, nil)
	if err != nil {
		return 0, err
	}

	downloads := assembleDownloads(records, def.Key, opts.LabelKeys, outDir)

	count, err := a.downloadFiles(ctx, downloads, opts.Progress)
	if err != nil {
		return count, err
	}

	a.logger.Debug("downloads complete",
		slog.String("container", container.Key()),
		slog.Int("count", count),
	)
	return count, nil
}

// assembleDownloads extracts attachment descriptors from a raw batch and
// computes each destination path.
//
// For every record, the payload under fieldKey+"_raw" is the attachment;
// records without one are silently skipped. Label keys are traversed in
// reverse so that after all prepends the label values read left to right in
// the order labelKeys was given. A label key missing from a record's payload
// contributes an empty segment rather than failing the batch.
//
// The returned descriptors preserve record order, one per record that holds
// the field.
func assembleDownloads(records []RawRecord, fieldKey string, labelKeys []string, outDir string) []Attachment {
	rawKey := fieldKey + "_raw"

	var downloads []Attachment
	for _, record := range records {
		payload, ok := record[rawKey].(map[string]any)
		if !ok || len(payload) == 0 {
			continue
		}

		att, err := decodeAttachment(payload)
		if err != nil || att.Filename == "" {
			continue
		}

		filename := att.Filename
		for i := len(labelKeys) - 1; i >= 0; i-- {
			filename = stringifyRaw(record[labelKeys[i]]) + "_" + filename
		}

		att.FieldKey = fieldKey
		att.Filename = filepath.Join(outDir, filename)
		downloads = append(downloads, att)
	}

	return downloads
}

// decodeAttachment converts a raw attachment payload into an Attachment.
func decodeAttachment(payload map[string]any) (Attachment, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Attachment{}, err
	}
	var att Attachment
	if err := json.Unmarshal(encoded, &att); err != nil {
		return Attachment{}, err
	}
	return att, nil
}

// downloadFiles transfers each descriptor in order, writing payloads to their
// destination paths. It guarantees the destination directory exists before
// each write and stops at the first failure, returning the count written so
// far.
func (a *App) downloadFiles(ctx context.Context, downloads []Attachment, progressFn func(bytesWritten, totalBytes int64)) (int, error) {
	count := 0
	for _, att := range downloads {
		a.logger.Debug("downloading attachment",
			slog.String("url", att.URL),
			slog.String("size", humanizeBytes(att.Size)),
		)

		payload, err := a.fetchBytes(ctx, att.URL, progressFn)
		if err != nil {
			var transportErr *TransportError
			if errors.As(err, &transportErr) {
				return count, &DownloadError{URL: att.URL, Status: transportErr.Status}
			}
			return count, fmt.Errorf("failed to download %s: %w", att.URL, err)
		}

		if dir := filepath.Dir(att.Filename); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return count, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(att.Filename, payload, 0o644); err != nil {
			return count, fmt.Errorf("failed to write %s: %w", att.Filename, err)
		}
		count++
	}
	return count, nil
}

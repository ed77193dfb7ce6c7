package knackpy

import (
	"context"
	"log/slog"
)

// RecordOptions controls one record retrieval. Filters and RecordLimit only
// take effect when a fetch actually happens: the cache is keyed by container
// identity, not query shape, so a cache hit returns the prior batch unchanged.
type RecordOptions struct {
	// Refresh forces a re-fetch, replacing the cached batch for the container.
	Refresh bool
	// RecordLimit caps the number of records fetched; <= 0 means all.
	RecordLimit int
	// Filters restricts the fetched records.
	Filters *Filters
}

// Records returns materialized records for a container.
//
// The identifier is an object key, view key, or display name. When empty, it
// is inferred only if the cache currently holds data for exactly one
// container; otherwise the call fails with a *MissingIdentifierError.
//
// The first call for a container fetches and caches the raw batch; subsequent
// calls reuse it unless opts.Refresh is set. Nothing is cached on a failed
// fetch.
func (a *App) Records(ctx context.Context, identifier string, opts *RecordOptions) ([]Record, error) {
	raw, _, err := a.getOrFetch(ctx, identifier, opts)
	if err != nil {
		return nil, err
	}
	return a.materializeRecords(raw), nil
}

// RecordsRaw is Records without materialization: it returns the cached (or
// freshly fetched) raw batch.
func (a *App) RecordsRaw(ctx context.Context, identifier string, opts *RecordOptions) ([]RawRecord, error) {
	raw, _, err := a.getOrFetch(ctx, identifier, opts)
	return raw, err
}

// InvalidateCache drops the cached batch for a container, if any.
func (a *App) InvalidateCache(identifier string) error {
	container, err := a.FindContainer(identifier)
	if err != nil {
		return err
	}
	a.cache.Invalidate(container.Key())
	return nil
}

// getOrFetch resolves the identifier and returns the cached raw batch for the
// container, fetching and caching it first when absent or when a refresh is
// requested. The stored entry is always replaced whole.
func (a *App) getOrFetch(ctx context.Context, identifier string, opts *RecordOptions) ([]RawRecord, *Container, error) {
	if opts == nil {
		opts = &RecordOptions{}
	}

	identifier, err := a.resolveIdentifier(identifier)
	if err != nil {
		return nil, nil, err
	}

	container, err := a.FindContainer(identifier)
	if err != nil {
		return nil, nil, err
	}
	key := container.Key()

	if !opts.Refresh {
		if entry, ok := a.cache.Get(key); ok {
			return entry.records, container, nil
		}
	}

	records, err := a.fetchRecords(ctx, container, opts.Filters, opts.RecordLimit)
	if err != nil {
		return nil, nil, err
	}

	a.cache.Put(key, cacheEntry{
		records:     records,
		filters:     opts.Filters,
		recordLimit: opts.RecordLimit,
	})

	a.logger.Debug("cached records",
		slog.String("container", key),
		slog.Int("records", len(records)),
	)

	return records, container, nil
}

// materializeRecords formats a raw batch into Records using the app timezone.
// Fields appear in field-definition order; fields absent from a record's
// payload are omitted from its values.
func (a *App) materializeRecords(raw []RawRecord) []Record {
	records := make([]Record, len(raw))
	for i, rawRecord := range raw {
		record := Record{
			ID:  rawRecord.ID(),
			Raw: rawRecord,
		}
		for _, def := range a.fieldDefs {
			value, ok := rawRecord[def.Key+"_raw"]
			if !ok {
				value, ok = rawRecord[def.Key]
			}
			if !ok {
				continue
			}
			record.Values = append(record.Values, FieldValue{
				Key:       def.Key,
				Name:      def.Name,
				Raw:       value,
				Formatted: formatValue(def, value, a.timezone),
			})
		}
		records[i] = record
	}
	return records
}

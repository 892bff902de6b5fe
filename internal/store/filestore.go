package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hazz-dev/appstatus/internal/status"
)

// FileStore is a Repository backed by a directory of per-record JSON
// documents, one file per append, named
// {service_name}-status-{YYYYMMDDTHHMMSSZ}.json. When two records for the
// same service land in the same second the later one gets an ordinal suffix
// (-2, -3, ...), which doubles as the insertion-order tie-break.
//
// Queries scan the whole directory; the store is meant for modest record
// volumes such as a check archive. Files that are not status documents are
// ignored.
type FileStore struct {
	dir string
}

// OpenFileStore opens (or creates) the record directory at dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating record directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Close is a no-op; the store holds no open handles between calls.
func (f *FileStore) Close() error {
	return nil
}

// Append writes one record as a JSON document. The write is atomic: the
// document is staged under a hidden temp name and renamed into place.
func (f *FileStore) Append(ctx context.Context, r status.Record) (RecordID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding record for %q: %w", r.ServiceName, err)
	}

	base := strings.TrimSuffix(r.Filename(), ".json")
	var name string
	for ordinal := 1; ; ordinal++ {
		if ordinal == 1 {
			name = base + ".json"
		} else {
			name = fmt.Sprintf("%s-%d.json", base, ordinal)
		}
		if _, err := os.Stat(filepath.Join(f.dir, name)); os.IsNotExist(err) {
			break
		} else if err != nil {
			return "", fmt.Errorf("probing %q: %w", name, unavailable(err))
		}
	}

	tmp := filepath.Join(f.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing record for %q: %w", r.ServiceName, unavailable(err))
	}
	if err := os.Rename(tmp, filepath.Join(f.dir, name)); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publishing record for %q: %w", r.ServiceName, unavailable(err))
	}

	return RecordID(name), nil
}

// LatestByName returns the most recent record for the given service.
func (f *FileStore) LatestByName(ctx context.Context, name string) (status.Record, error) {
	latest, err := f.scan(ctx, name)
	if err != nil {
		return status.Record{}, err
	}
	r, ok := latest[name]
	if !ok {
		return status.Record{}, fmt.Errorf("no record for %q: %w", name, ErrNotFound)
	}
	return r.record, nil
}

// LatestAll returns the most recent record for every service name ever
// appended.
func (f *FileStore) LatestAll(ctx context.Context) (map[string]status.Record, error) {
	latest, err := f.scan(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]status.Record, len(latest))
	for name, c := range latest {
		out[name] = c.record
	}
	return out, nil
}

// candidate pairs a decoded record with the ordinal parsed from its
// filename so ties on timestamp resolve by insertion order.
type candidate struct {
	record  status.Record
	ordinal int
}

func (c candidate) after(other candidate) bool {
	if !c.record.Timestamp.Equal(other.record.Timestamp) {
		return c.record.Timestamp.After(other.record.Timestamp)
	}
	return c.ordinal > other.ordinal
}

// scan reads every status document in the directory and keeps the latest
// candidate per service name. When only is non-empty, documents for other
// names are discarded after decoding; service names may contain characters
// that make filename prefix matching unreliable, so filtering happens on
// the decoded name.
func (f *FileStore) scan(ctx context.Context, only string) (map[string]candidate, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading record directory: %w", unavailable(err))
	}

	latest := make(map[string]candidate)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading record file %q: %w", name, unavailable(err))
		}

		var r status.Record
		if err := json.Unmarshal(data, &r); err != nil {
			// Not one of our documents; leave it alone.
			continue
		}
		if only != "" && r.ServiceName != only {
			continue
		}

		c := candidate{record: r, ordinal: parseOrdinal(name)}
		if best, ok := latest[r.ServiceName]; !ok || c.after(best) {
			latest[r.ServiceName] = c
		}
	}
	return latest, nil
}

// parseOrdinal extracts the collision suffix from a document filename.
// "{name}-status-{ts}.json" is ordinal 1; "{name}-status-{ts}-{n}.json" is n.
func parseOrdinal(filename string) int {
	trimmed := strings.TrimSuffix(filename, ".json")
	idx := strings.LastIndex(trimmed, "-status-")
	if idx < 0 {
		return 1
	}
	rest := trimmed[idx+len("-status-"):]

	// The timestamp part is fixed width (20060102T150405Z); anything after
	// it is the ordinal.
	const tsLen = len("20060102T150405Z")
	if len(rest) <= tsLen+1 || rest[tsLen] != '-' {
		return 1
	}
	n, err := strconv.Atoi(rest[tsLen+1:])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

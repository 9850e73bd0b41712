package dataset

import (
	"archive/tar"
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrPendingOverflow indicates too many image/label halves were waiting for
// their partner inside one shard.
var ErrPendingOverflow = errors.New("webdataset: pending pair buffer exceeded")

const defaultPendingCap = 1024

type half struct {
	data  []byte
	label int
	// hasLabel distinguishes label 0 from a missing .cls entry.
	hasLabel bool
}

// readShard pairs <key>.{jpg,jpeg,png} entries with their <key>.cls label and
// calls emit for each completed pair in archive order.
func readShard(ctx context.Context, path string, pendingCap int, emit func(Sample) error) error {
	if pendingCap <= 0 {
		pendingCap = defaultPendingCap
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open shard")
	}
	defer f.Close()

	tr := tar.NewReader(bufio.NewReader(f))
	pending := make(map[string]*half)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "read tar %s", path)
		}
		if hdr.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(hdr.Name)
		ext := strings.ToLower(filepath.Ext(name))
		key := strings.TrimSuffix(name, filepath.Ext(name))

		var isImage bool
		switch ext {
		case ".jpg", ".jpeg", ".png":
			isImage = true
		case ".cls":
		default:
			continue
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return errors.Wrapf(err, "read %s in %s", name, path)
		}

		h := pending[key]
		if h == nil {
			h = &half{}
			pending[key] = h
		}
		if isImage {
			h.data = payload
		} else {
			label, err := strconv.Atoi(strings.TrimSpace(string(payload)))
			if err != nil {
				return errors.Wrapf(err, "parse label %s in %s", name, path)
			}
			h.label, h.hasLabel = label, true
		}

		if len(h.data) > 0 && h.hasLabel {
			delete(pending, key)
			if err := emit(Sample{Key: key, Data: h.data, Label: h.label}); err != nil {
				return err
			}
			continue
		}
		if len(pending) > pendingCap {
			return ErrPendingOverflow
		}
	}
	if len(pending) > 0 {
		return errors.Errorf("%s: %d samples incomplete", path, len(pending))
	}
	return nil
}

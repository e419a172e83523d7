// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/ExponentialDS/vid-text/internal/format"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/metrics"
	"github.com/ExponentialDS/vid-text/internal/transcript"
)

// exportDir is the subdirectory of the data dir holding export files.
const exportDir = "exports"

// writeExports renders tr into each named format and writes the files
// under the data dir. Returns format name to relative path.
func (r *Runner) writeExports(ctx context.Context, tr *transcript.Transcript, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	dataDir := r.config().DataDir
	dir := filepath.Join(dataDir, exportDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	logger := vtlog.WithComponentFromContext(ctx, "jobs")
	exports := make(map[string]string, len(names))
	for _, name := range names {
		f, err := format.Get(name)
		if err != nil {
			return nil, err
		}
		data, err := f.Format(tr)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}

		rel := filepath.Join(exportDir, exportFileName(tr, f))
		path := filepath.Join(dataDir, rel)
		if err := writeFileAtomic(ctx, path, data); err != nil {
			return nil, fmt.Errorf("write %s export: %w", name, err)
		}

		metrics.AddExportBytes(name, len(data))
		logger.Info().
			Str(vtlog.FieldEvent, "export.write").
			Str(vtlog.FieldVideoID, tr.VideoID).
			Str(vtlog.FieldFormat, name).
			Str(vtlog.FieldOutPath, path).
			Int("bytes", len(data)).
			Msg("export written")

		exports[name] = rel
	}
	return exports, nil
}

func exportFileName(tr *transcript.Transcript, f format.Formatter) string {
	return fmt.Sprintf("%s.%s.%s", tr.VideoID, tr.LanguageCode, f.Ext())
}

// writeFileAtomic writes data to path with fsync before rename, so a
// crash never leaves a partial export behind.
func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	logger := vtlog.FromContext(ctx)

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending export file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace file: %w", err)
	}
	return nil
}

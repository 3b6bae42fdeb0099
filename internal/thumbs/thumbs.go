// Package thumbs resolves clip thumbnails off the event loop. Requests are
// fire-and-forget: a small worker pool extracts frames with ffmpeg, a
// sqlite index deduplicates extractions, and results come back on a
// channel tagged with the generation they were requested under. Any
// viewport change bumps the generation; stale in-flight results are
// discarded on arrival instead of applied.
package thumbs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// Request asks for one frame of one source file.
type Request struct {
	ObjectID   string
	FileID     string
	Frame      float64
	Seconds    float64 // source time of the frame
	Generation uint64
}

// Result is a resolved thumbnail, or the error that prevented it.
type Result struct {
	Request
	Path string
	Err  error
}

// Provider owns the worker pool and the cache index.
type Provider struct {
	log      *slog.Logger
	ffmpeg   string
	mediaDir string
	cacheDir string
	db       *sql.DB

	requests chan Request
	results  chan Result
	gen      atomic.Uint64
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewProvider(ffmpegPath, mediaDir, cacheDir, indexPath string, log *slog.Logger) (*Provider, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating thumbnail cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", indexPath)
	if err != nil {
		return nil, fmt.Errorf("opening thumbnail index: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS thumbs (
		file_id TEXT NOT NULL,
		frame   INTEGER NOT NULL,
		path    TEXT NOT NULL,
		PRIMARY KEY (file_id, frame)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing thumbnail index: %w", err)
	}

	return &Provider{
		log:      log,
		ffmpeg:   ffmpegPath,
		mediaDir: mediaDir,
		cacheDir: cacheDir,
		db:       db,
		requests: make(chan Request, 256),
		results:  make(chan Result, 256),
	}, nil
}

// Start launches the worker pool.
func (p *Provider) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for range workers {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Close stops the workers and the index.
func (p *Provider) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	close(p.requests)
	p.wg.Wait()
	close(p.results)
	return p.db.Close()
}

// Results delivers resolved thumbnails. Consumers must compare each
// result's Generation against Generation() and drop stale ones.
func (p *Provider) Results() <-chan Result { return p.results }

// Generation returns the current viewport generation.
func (p *Provider) Generation() uint64 { return p.gen.Load() }

// Bump invalidates all in-flight requests; called on any viewport change.
func (p *Provider) Bump() uint64 { return p.gen.Add(1) }

// Enqueue requests a thumbnail without ever blocking the caller. When the
// queue is full the request is dropped; the next repaint re-requests it.
func (p *Provider) Enqueue(req Request) {
	select {
	case p.requests <- req:
	default:
		p.log.Debug("thumbnail queue full, dropping request", "object", req.ObjectID)
	}
}

func (p *Provider) worker(ctx context.Context) {
	defer p.wg.Done()
	for req := range p.requests {
		if ctx.Err() != nil {
			return
		}
		// Skip work for requests a viewport change already obsoleted.
		if req.Generation != p.gen.Load() {
			continue
		}
		path, err := p.resolve(ctx, req)
		select {
		case p.results <- Result{Request: req, Path: path, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Provider) resolve(ctx context.Context, req Request) (string, error) {
	frame := int64(req.Frame)

	var cached string
	err := p.db.QueryRowContext(ctx,
		`SELECT path FROM thumbs WHERE file_id = ? AND frame = ?`,
		req.FileID, frame,
	).Scan(&cached)
	if err == nil {
		if _, statErr := os.Stat(cached); statErr == nil {
			return cached, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("querying thumbnail index: %w", err)
	}

	out := filepath.Join(p.cacheDir, fmt.Sprintf("%s_%d.png", req.FileID, frame))
	source := filepath.Join(p.mediaDir, req.FileID)

	cmd := exec.CommandContext(ctx, p.ffmpeg,
		"-ss", fmt.Sprintf("%.3f", req.Seconds),
		"-i", source,
		"-frames:v", "1",
		"-vf", "scale=160:-1",
		"-y", out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("extracting frame %d of %s: %w: %s", frame, req.FileID, err, output)
	}

	if _, err := p.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO thumbs (file_id, frame, path) VALUES (?, ?, ?)`,
		req.FileID, frame, out,
	); err != nil {
		return "", fmt.Errorf("recording thumbnail: %w", err)
	}
	return out, nil
}

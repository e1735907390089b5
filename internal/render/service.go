package render

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lukaszgryglicki/raytracer/internal/flatscene"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
	"github.com/lukaszgryglicki/raytracer/internal/logging"
)

type Options struct {
	Workers     int  // 0 means runtime.NumCPU()
	StripHeight int  // 0 means MaxStripHeight
	Shuffle     bool // randomise strip order
	Seed        int64
}

// Service owns one render: the worker pool, the shared scene buffers and
// the output canvas. Lifecycle is NewService, Start, Render (any number of
// times), Close.
type Service struct {
	opts    Options
	buf     *flatscene.Buffers
	cam     kernel.Camera
	job     uuid.UUID
	log     *slog.Logger
	workers []*Worker
	stats   kernel.RayStats
	closed  bool
}

// NewService checks the buffers and reads the camera. The buffers must not
// be modified afterwards.
func NewService(buf *flatscene.Buffers, opts Options) (*Service, error) {
	if buf == nil {
		return nil, errors.New("render: nil scene buffers")
	}
	if err := buf.Validate(); err != nil {
		return nil, errors.Wrap(err, "render")
	}
	if len(buf.Camera) == 0 {
		return nil, errors.New("render: scene has no camera")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.StripHeight <= 0 {
		opts.StripHeight = MaxStripHeight
	}
	job := uuid.New()
	return &Service{
		opts: opts,
		buf:  buf,
		cam:  flatscene.DecodeCamera(buf.Camera),
		job:  job,
		log:  logging.Logger().With("job", job.String()),
	}, nil
}

// Job identifies this render in logs.
func (s *Service) Job() uuid.UUID { return s.job }

// Camera is the decoded scene camera.
func (s *Service) Camera() kernel.Camera { return s.cam }

// Stats returns the ray counters merged over all finished tiles.
func (s *Service) Stats() kernel.RayStats { return s.stats }

// Start sends the init message to every worker. Workers share the buffers;
// each builds its own readers.
func (s *Service) Start() error {
	if s.closed {
		return errors.New("render: service closed")
	}
	if s.workers != nil {
		return nil
	}
	msg := &InitMsg{Job: s.job.String(), Seed: s.opts.Seed, Buffers: s.buf}
	workers := make([]*Worker, s.opts.Workers)
	for i := range workers {
		w, err := NewWorker(i, msg)
		if err != nil {
			return errors.Wrap(err, "render: start")
		}
		workers[i] = w
	}
	s.workers = workers
	s.log.Info("render started", "workers", len(workers), "width", s.cam.HSize, "height", s.cam.VSize,
		"buffer_bytes", s.buf.Size())
	return nil
}

// Render traces the whole canvas. Workers pull strips one at a time; each
// finished strip is written at its offset, in whatever order it arrives.
// Cancelling ctx stops handing out strips and returns the partial canvas
// with ctx's error.
func (s *Service) Render(ctx context.Context) (*kernel.Canvas, error) {
	if s.closed {
		return nil, errors.New("render: service closed")
	}
	if s.workers == nil {
		return nil, errors.New("render: service not started")
	}
	start := time.Now()
	strips := Strips(s.cam.HSize, s.cam.VSize, s.opts.StripHeight, s.opts.Shuffle)
	canvas := kernel.NewCanvas(s.cam.HSize, s.cam.VSize)
	s.log.Info("render strips", "strips", len(strips), "pixels", Pixels(strips), "shuffle", s.opts.Shuffle)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	requests := make(chan []byte)
	results := make(chan []byte)
	errc := make(chan error, len(s.workers)+1)

	var wg sync.WaitGroup
	wg.Add(len(s.workers))
	for _, w := range s.workers {
		go func(w *Worker) {
			defer wg.Done()
			for msg := range requests {
				out, err := w.Handle(msg)
				if err != nil {
					errc <- err
					cancel()
					return
				}
				results <- out
			}
		}(w)
	}

	go func() {
		defer close(requests)
		for i, st := range strips {
			req := TileRequest{ID: i, X: st.X, Y: st.Y, W: st.W, H: st.H}
			msg, err := req.MarshalMsg(nil)
			if err != nil {
				errc <- errors.Wrapf(err, "encode strip %d", i)
				cancel()
				return
			}
			select {
			case requests <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		res     TileResult
		stats   kernel.RayStats
		done    int
		failure error
	)
	for out := range results {
		if _, err := res.UnmarshalMsg(out); err != nil {
			failure = errors.Wrap(err, "decode tile result")
			cancel()
			continue
		}
		if err := canvas.SetRect(res.X, res.Y, res.W, res.H, res.Pixels); err != nil {
			failure = errors.Wrapf(err, "tile %d", res.ID)
			cancel()
			continue
		}
		var tile kernel.RayStats
		copy(tile.Counts[:], res.Stats)
		stats.Merge(&tile)
		done++
		logging.DebugLog("strip %d/%d done (y=%d)", done, len(strips), res.Y)
	}
	s.stats.Merge(&stats)

	select {
	case err := <-errc:
		failure = err
	default:
	}
	elapsed := time.Since(start)
	if failure != nil {
		s.log.Error("render failed", "err", failure, "strips_done", done)
		return canvas, errors.Wrap(failure, "render")
	}
	if done < len(strips) {
		err := context.Cause(ctx)
		if err == nil {
			err = errors.New("strips missing")
		}
		s.log.Warn("render interrupted", "strips_done", done, "strips", len(strips), "elapsed", elapsed)
		return canvas, errors.Wrapf(err, "render: %d of %d strips", done, len(strips))
	}
	s.log.Info("render finished", "elapsed", elapsed, "rays", &stats)
	return canvas, nil
}

// Close releases the workers. The service cannot be used afterwards.
func (s *Service) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.workers = nil
	s.log.Info("render closed", "rays", &s.stats, "total_rays", s.stats.Total())
	return nil
}

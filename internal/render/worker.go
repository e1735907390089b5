package render

import (
	"github.com/pkg/errors"

	"github.com/lukaszgryglicki/raytracer/internal/flatscene"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
)

// Worker renders tiles from its own view of the shared scene buffers. Its
// readers, tracer and RNG are private; a Worker must be driven by one
// goroutine at a time.
type Worker struct {
	ID     int
	scene  *flatscene.Scene
	tracer *kernel.Tracer
	cam    kernel.Camera
}

// workerSeed spreads worker ids over the seed space.
func workerSeed(seed int64, id int) int64 {
	return seed ^ int64(uint64(id+1)*0x9e3779b97f4a7c15)
}

// NewWorker handles the init message: it builds a private Scene over the
// buffers and decodes the camera.
func NewWorker(id int, init *InitMsg) (*Worker, error) {
	if init == nil || init.Buffers == nil {
		return nil, errors.New("init message without scene buffers")
	}
	scene, err := flatscene.NewScene(init.Buffers)
	if err != nil {
		return nil, errors.Wrapf(err, "worker %d", id)
	}
	cam, err := scene.Camera()
	if err != nil {
		return nil, errors.Wrapf(err, "worker %d", id)
	}
	return &Worker{
		ID:     id,
		scene:  scene,
		tracer: kernel.NewTracer(scene, cam.MaxDepth, workerSeed(init.Seed, id)),
		cam:    cam,
	}, nil
}

// RenderTile traces every pixel of req.
func (w *Worker) RenderTile(req *TileRequest) (*TileResult, error) {
	if req.W <= 0 || req.H <= 0 || req.X < 0 || req.Y < 0 ||
		req.X+req.W > w.cam.HSize || req.Y+req.H > w.cam.VSize {
		return nil, errors.Errorf("tile %d (%d,%d %dx%d) outside %dx%d canvas",
			req.ID, req.X, req.Y, req.W, req.H, w.cam.HSize, w.cam.VSize)
	}
	w.tracer.Stats = kernel.RayStats{}
	res := &TileResult{
		ID: req.ID, X: req.X, Y: req.Y, W: req.W, H: req.H,
		Pixels: make([]float64, 0, req.W*req.H*3),
	}
	for y := req.Y; y < req.Y+req.H; y++ {
		for x := req.X; x < req.X+req.W; x++ {
			c := w.tracer.RenderPixel(&w.cam, x, y)
			res.Pixels = append(res.Pixels, c.R, c.G, c.B)
		}
	}
	res.Stats = append([]uint64(nil), w.tracer.Stats.Counts[:]...)
	return res, nil
}

// Handle is the message boundary: a msgpack TileRequest in, a msgpack
// TileResult out.
func (w *Worker) Handle(msg []byte) ([]byte, error) {
	var req TileRequest
	if _, err := req.UnmarshalMsg(msg); err != nil {
		return nil, errors.Wrapf(err, "worker %d: decode tile request", w.ID)
	}
	res, err := w.RenderTile(&req)
	if err != nil {
		return nil, errors.Wrapf(err, "worker %d", w.ID)
	}
	out, err := res.MarshalMsg(nil)
	if err != nil {
		return nil, errors.Wrapf(err, "worker %d: encode tile %d", w.ID, req.ID)
	}
	return out, nil
}

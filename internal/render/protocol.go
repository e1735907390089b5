package render

import (
	"github.com/tinylib/msgp/msgp"

	"github.com/lukaszgryglicki/raytracer/internal/flatscene"
)

// Worker control messages. Requests and results cross the worker boundary
// as msgpack bytes. InitMsg is normally passed by pointer so all workers
// share one set of buffers; it is marshalable for out-of-process workers.

// InitMsg loads a scene into a worker.
type InitMsg struct {
	Job     string
	Seed    int64
	Buffers *flatscene.Buffers
}

// TileRequest asks for the pixels of one rectangle.
type TileRequest struct {
	ID         int
	X, Y, W, H int
}

// TileResult carries W*H*3 linear RGB values, row-major, and the ray
// counters of the tile.
type TileResult struct {
	ID         int
	X, Y, W, H int
	Pixels     []float64
	Stats      []uint64
}

var (
	_ msgp.Marshaler   = (*InitMsg)(nil)
	_ msgp.Unmarshaler = (*InitMsg)(nil)
	_ msgp.Marshaler   = (*TileRequest)(nil)
	_ msgp.Unmarshaler = (*TileRequest)(nil)
	_ msgp.Marshaler   = (*TileResult)(nil)
	_ msgp.Unmarshaler = (*TileResult)(nil)
)

// MarshalMsg appends m as a map of job, seed and buffers; nil buffers
// are written as nil.
func (m *InitMsg) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, m.Msgsize())
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "job")
	o = msgp.AppendString(o, m.Job)
	o = msgp.AppendString(o, "seed")
	o = msgp.AppendInt64(o, m.Seed)
	o = msgp.AppendString(o, "buffers")
	if m.Buffers == nil {
		o = msgp.AppendNil(o)
		return
	}
	o, err = m.Buffers.MarshalMsg(o)
	if err != nil {
		err = msgp.WrapError(err, "Buffers")
	}
	return
}

// UnmarshalMsg reads m from the front of bts and returns the rest.
// Unknown keys are skipped.
func (m *InitMsg) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var n uint32
	n, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for n > 0 {
		n--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "job":
			m.Job, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Job")
				return
			}
		case "seed":
			m.Seed, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Seed")
				return
			}
		case "buffers":
			if msgp.IsNil(bts) {
				bts, err = msgp.ReadNilBytes(bts)
				if err != nil {
					return
				}
				m.Buffers = nil
				continue
			}
			if m.Buffers == nil {
				m.Buffers = new(flatscene.Buffers)
			}
			bts, err = m.Buffers.UnmarshalMsg(bts)
			if err != nil {
				err = msgp.WrapError(err, "Buffers")
				return
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize bounds the encoded size of m.
func (m *InitMsg) Msgsize() (s int) {
	s = msgp.MapHeaderSize + msgp.StringPrefixSize + 3 + msgp.StringPrefixSize + len(m.Job) +
		msgp.StringPrefixSize + 4 + msgp.Int64Size + msgp.StringPrefixSize + 7
	if m.Buffers == nil {
		s += msgp.NilSize
	} else {
		s += m.Buffers.Msgsize()
	}
	return
}

func appendRect(o []byte, id, x, y, w, h int) []byte {
	o = msgp.AppendString(o, "id")
	o = msgp.AppendInt(o, id)
	o = msgp.AppendString(o, "x")
	o = msgp.AppendInt(o, x)
	o = msgp.AppendString(o, "y")
	o = msgp.AppendInt(o, y)
	o = msgp.AppendString(o, "w")
	o = msgp.AppendInt(o, w)
	o = msgp.AppendString(o, "h")
	o = msgp.AppendInt(o, h)
	return o
}

// rectField returns the destination of a rectangle key, or nil.
func rectField(key string, id, x, y, w, h *int) *int {
	switch key {
	case "id":
		return id
	case "x":
		return x
	case "y":
		return y
	case "w":
		return w
	case "h":
		return h
	}
	return nil
}

const rectMsgsize = 5 * (msgp.StringPrefixSize + 2 + msgp.IntSize)

func (m *TileRequest) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, m.Msgsize())
	o = msgp.AppendMapHeader(o, 5)
	o = appendRect(o, m.ID, m.X, m.Y, m.W, m.H)
	return
}

func (m *TileRequest) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var n uint32
	n, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for n > 0 {
		n--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		key := msgp.UnsafeString(field)
		if dst := rectField(key, &m.ID, &m.X, &m.Y, &m.W, &m.H); dst != nil {
			*dst, bts, err = msgp.ReadIntBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, key)
				return
			}
			continue
		}
		bts, err = msgp.Skip(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
	}
	o = bts
	return
}

func (m *TileRequest) Msgsize() int {
	return msgp.MapHeaderSize + rectMsgsize
}

// MarshalMsg appends the rectangle keys followed by the pixel and stats
// arrays.
func (m *TileResult) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, m.Msgsize())
	o = msgp.AppendMapHeader(o, 7)
	o = appendRect(o, m.ID, m.X, m.Y, m.W, m.H)
	o = msgp.AppendString(o, "pixels")
	o = msgp.AppendArrayHeader(o, uint32(len(m.Pixels)))
	for _, v := range m.Pixels {
		o = msgp.AppendFloat64(o, v)
	}
	o = msgp.AppendString(o, "stats")
	o = msgp.AppendArrayHeader(o, uint32(len(m.Stats)))
	for _, v := range m.Stats {
		o = msgp.AppendUint64(o, v)
	}
	return
}

// UnmarshalMsg reuses the Pixels and Stats slices when they are large
// enough.
func (m *TileResult) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var n, sz uint32
	n, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for n > 0 {
		n--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		key := msgp.UnsafeString(field)
		if dst := rectField(key, &m.ID, &m.X, &m.Y, &m.W, &m.H); dst != nil {
			*dst, bts, err = msgp.ReadIntBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, key)
				return
			}
			continue
		}
		switch key {
		case "pixels":
			sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Pixels")
				return
			}
			if cap(m.Pixels) >= int(sz) {
				m.Pixels = m.Pixels[:sz]
			} else {
				m.Pixels = make([]float64, sz)
			}
			for i := range m.Pixels {
				m.Pixels[i], bts, err = msgp.ReadFloat64Bytes(bts)
				if err != nil {
					err = msgp.WrapError(err, "Pixels", i)
					return
				}
			}
		case "stats":
			sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Stats")
				return
			}
			if cap(m.Stats) >= int(sz) {
				m.Stats = m.Stats[:sz]
			} else {
				m.Stats = make([]uint64, sz)
			}
			for i := range m.Stats {
				m.Stats[i], bts, err = msgp.ReadUint64Bytes(bts)
				if err != nil {
					err = msgp.WrapError(err, "Stats", i)
					return
				}
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

func (m *TileResult) Msgsize() int {
	return msgp.MapHeaderSize + rectMsgsize +
		msgp.StringPrefixSize + 6 + msgp.ArrayHeaderSize + len(m.Pixels)*msgp.Float64Size +
		msgp.StringPrefixSize + 5 + msgp.ArrayHeaderSize + len(m.Stats)*msgp.Uint64Size
}

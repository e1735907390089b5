package flatscene

import (
	"os"

	"github.com/pkg/errors"
	"github.com/tinylib/msgp/msgp"
)

// Buffers travel as a msgpack map of raw byte strings, so a scene can be
// written once and handed to workers or reloaded without re-encoding.

var (
	_ msgp.Marshaler   = (*Buffers)(nil)
	_ msgp.Unmarshaler = (*Buffers)(nil)
	_ msgp.Sizer       = (*Buffers)(nil)
)

func (b *Buffers) fields() []struct {
	key string
	val *[]byte
} {
	return []struct {
		key string
		val *[]byte
	}{
		{"shapes", &b.Shapes},
		{"primitives", &b.Primitives},
		{"triangles", &b.Triangles},
		{"nodes", &b.Nodes},
		{"materials", &b.Materials},
		{"patterns", &b.Patterns},
		{"lights", &b.Lights},
		{"textures", &b.Textures},
		{"texels", &b.Texels},
		{"camera", &b.Camera},
	}
}

// MarshalMsg appends b as a map of byte strings plus the root count.
func (b *Buffers) MarshalMsg(o []byte) ([]byte, error) {
	o = msgp.Require(o, b.Msgsize())
	fs := b.fields()
	o = msgp.AppendMapHeader(o, uint32(len(fs)+1))
	for _, f := range fs {
		o = msgp.AppendString(o, f.key)
		o = msgp.AppendBytes(o, *f.val)
	}
	o = msgp.AppendString(o, "roots")
	o = msgp.AppendInt(o, b.Roots)
	return o, nil
}

func (b *Buffers) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var n uint32
	n, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	fs := b.fields()
	for n > 0 {
		n--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		key := msgp.UnsafeString(field)
		if key == "roots" {
			b.Roots, bts, err = msgp.ReadIntBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Roots")
				return
			}
			continue
		}
		found := false
		for _, f := range fs {
			if f.key != key {
				continue
			}
			*f.val, bts, err = msgp.ReadBytesBytes(bts, (*f.val)[:0])
			if err != nil {
				err = msgp.WrapError(err, f.key)
				return
			}
			found = true
			break
		}
		if !found {
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

func (b *Buffers) Msgsize() (s int) {
	s = msgp.MapHeaderSize
	for _, f := range b.fields() {
		s += msgp.StringPrefixSize + len(f.key) + msgp.BytesPrefixSize + len(*f.val)
	}
	s += msgp.StringPrefixSize + len("roots") + msgp.IntSize
	return
}

// WriteFile stores b at path.
func (b *Buffers) WriteFile(path string) error {
	data, err := b.MarshalMsg(nil)
	if err != nil {
		return errors.Wrap(err, "marshal scene buffers")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ReadFile loads and validates buffers written by WriteFile.
func ReadFile(path string) (*Buffers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	b := &Buffers{}
	rest, err := b.UnmarshalMsg(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if len(rest) != 0 {
		return nil, errors.Errorf("%s: %d trailing bytes", path, len(rest))
	}
	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return b, nil
}

package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/posegrid/dataset"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// formatVersion is bumped whenever the artifact layout changes; older
// artifacts then read as corrupt and are rebuilt.
const formatVersion = 1

// envelope wraps every artifact. Checksum is the SHA-256 of Payload.
type envelope struct {
	Version  int
	Key      string
	Payload  []byte
	Checksum [sha256.Size]byte
}

// dataPayload stores all matrices back to back in row-major order.
type dataPayload struct {
	Samples int
	Rows    int
	Cols    int
	Values  []float64
}

type labelsPayload struct {
	Labels  []int
	Classes []string
	Stats   dataset.Stats
}

func encodeArtifact(w io.Writer, key string, payload interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return errors.Wrap(err, "encode payload")
	}
	env := envelope{
		Version:  formatVersion,
		Key:      key,
		Payload:  buf.Bytes(),
		Checksum: sha256.Sum256(buf.Bytes()),
	}
	if err := gob.NewEncoder(w).Encode(&env); err != nil {
		return errors.Wrap(err, "encode envelope")
	}
	return nil
}

func decodeArtifact(r io.Reader, key string, payload interface{}) error {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return errors.Wrap(err, "decode envelope")
	}
	if env.Version != formatVersion {
		return errors.Newf("format version %d, want %d", env.Version, formatVersion)
	}
	if env.Key != key {
		return errors.Newf("artifact belongs to key %q", env.Key)
	}
	if sha256.Sum256(env.Payload) != env.Checksum {
		return errors.WithStack(errors.ErrChecksumMismatch)
	}
	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(payload); err != nil {
		return errors.Wrap(err, "decode payload")
	}
	return nil
}

func newDataPayload(ds *dataset.Dataset) dataPayload {
	rows, cols := ds.Shape()
	p := dataPayload{
		Samples: ds.Len(),
		Rows:    rows,
		Cols:    cols,
		Values:  make([]float64, 0, ds.Len()*rows*cols),
	}
	for _, m := range ds.Data {
		for r := 0; r < rows; r++ {
			p.Values = append(p.Values, m.RawRowView(r)...)
		}
	}
	return p
}

// matrices checks the payload and slices it back into matrices.
func (p dataPayload) matrices() ([]*mat.Dense, error) {
	if p.Samples < 0 || p.Rows < 0 || p.Cols < 0 {
		return nil, errors.Newf("negative shape %d×%d×%d", p.Samples, p.Rows, p.Cols)
	}
	size := p.Rows * p.Cols
	if len(p.Values) != p.Samples*size {
		return nil, errors.NewDimensionError("cache.decode", p.Samples*size, len(p.Values), 0)
	}
	if p.Samples == 0 {
		return nil, nil
	}
	if size == 0 {
		return nil, errors.Newf("empty matrix shape %d×%d", p.Rows, p.Cols)
	}
	if floats.HasNaN(p.Values) {
		return nil, errors.New("matrix values contain NaN")
	}
	if lo, hi := floats.Min(p.Values), floats.Max(p.Values); lo < 0 || hi > 1 {
		return nil, errors.Newf("matrix values outside [0,1]: [%g,%g]", lo, hi)
	}
	out := make([]*mat.Dense, p.Samples)
	for i := range out {
		out[i] = mat.NewDense(p.Rows, p.Cols, p.Values[i*size:(i+1)*size:(i+1)*size])
	}
	return out, nil
}

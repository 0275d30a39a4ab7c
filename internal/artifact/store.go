// Package artifact persists scale factor and atomic weight artifacts.
//
// A Store encodes artifacts as versioned JSON documents, optionally zstd
// compressed, and hands the bytes to a Backend. Two backends are provided:
// FileBackend writes one file per artifact into a directory and
// SQLiteBackend keeps artifacts as rows of a SQLite database.
package artifact

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/gdfprep/internal/scaling"
	"github.com/tensorplex-labs/gdfprep/internal/utils/codec"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

// Kind distinguishes the artifact families.
type Kind string

const (
	KindScale   Kind = "scale_factor"
	KindWeights Kind = "atomic_weights"
)

// Backend stores opaque artifact payloads. Get must return an error
// matching ErrNotFound when nothing is stored under kind and id.
type Backend interface {
	Put(ctx context.Context, kind Kind, id string, data []byte) error
	Get(ctx context.Context, kind Kind, id string) ([]byte, error)
	Location(kind Kind, id string) string
}

type Store struct {
	backend  Backend
	compress bool
}

func NewStore(backend Backend, compress bool) *Store {
	return &Store{backend: backend, compress: compress}
}

func (s *Store) SaveScale(ctx context.Context, id string, f scaling.Factors) error {
	return s.save(ctx, KindScale, id, newScaleDocument(f))
}

func (s *Store) LoadScale(ctx context.Context, id string) (scaling.Factors, error) {
	var doc scaleDocument
	if err := s.load(ctx, KindScale, id, &doc); err != nil {
		return nil, err
	}
	f, err := doc.factors()
	if err != nil {
		return nil, s.ioError("load", KindScale, id, err)
	}
	return f, nil
}

func (s *Store) SaveWeights(ctx context.Context, id string, w weighting.Weights) error {
	return s.save(ctx, KindWeights, id, newWeightDocument(w))
}

func (s *Store) LoadWeights(ctx context.Context, id string) (weighting.Weights, error) {
	var doc weightDocument
	if err := s.load(ctx, KindWeights, id, &doc); err != nil {
		return nil, err
	}
	w, err := doc.weights()
	if err != nil {
		return nil, s.ioError("load", KindWeights, id, err)
	}
	return w, nil
}

func (s *Store) save(ctx context.Context, kind Kind, id string, doc any) error {
	if err := validateID(id); err != nil {
		return s.ioError("save", kind, id, err)
	}
	data, err := codec.Marshal(doc, s.compress)
	if err != nil {
		return s.ioError("save", kind, id, err)
	}
	if err := s.backend.Put(ctx, kind, id, data); err != nil {
		return s.ioError("save", kind, id, err)
	}
	log.Info().Str("kind", string(kind)).Str("id", id).Str("location", s.backend.Location(kind, id)).
		Int("bytes", len(data)).Msg("artifact saved")
	return nil
}

func (s *Store) load(ctx context.Context, kind Kind, id string, doc any) error {
	if err := validateID(id); err != nil {
		return s.ioError("load", kind, id, err)
	}
	data, err := s.backend.Get(ctx, kind, id)
	if err != nil {
		return s.ioError("load", kind, id, err)
	}
	if err := codec.Unmarshal(data, doc); err != nil {
		return s.ioError("load", kind, id, errors.Wrap(ErrCorrupt, err.Error()))
	}
	log.Debug().Str("kind", string(kind)).Str("id", id).Msg("artifact loaded")
	return nil
}

func (s *Store) ioError(op string, kind Kind, id string, err error) error {
	return &IOError{
		Op:       op,
		Kind:     kind,
		ID:       id,
		Location: s.backend.Location(kind, id),
		Err:      errors.WithStack(err),
	}
}

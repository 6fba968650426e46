package objects

import (
	"context"
	"io"
	"strings"

	"filevault/internal/shared/auth"
	"filevault/internal/shared/metrics"
)

// authorize allows the owner and the administrator.
func authorize(identity auth.Identity, owner string) bool {
	if identity.IsAdmin {
		return true
	}
	return identity.Subject != "" && identity.Subject == owner
}

// Service is the entry point for callers outside this package. Every call is checked
// against the caller identity; objects the caller may not see are reported as ErrNotFound.
type Service struct {
	Store   *Store
	Stager  *Stager // nil streams uploads straight into the chunker
	Metrics *metrics.Metrics
}

// Upload stores r as a new object owned by the caller.
func (s *Service) Upload(ctx context.Context, identity auth.Identity, name string, r io.Reader) (Object, error) {
	if identity.Subject == "" {
		return Object{}, auth.ErrUnauthenticated
	}
	if strings.TrimSpace(name) == "" || r == nil {
		return Object{}, ErrInvalidInput
	}

	if s.Stager != nil {
		staged, err := s.Stager.Stage(ctx, r)
		if err != nil {
			s.Metrics.RecordUpload(0, err)
			return Object{}, err
		}
		defer staged.Close()
		r = staged
	}
	return s.Store.Put(ctx, r, name, identity.Subject)
}

// Describe returns an object's metadata.
func (s *Service) Describe(ctx context.Context, identity auth.Identity, id string) (Object, error) {
	obj, err := s.Store.Get(ctx, id)
	if err != nil {
		return Object{}, err
	}
	if !authorize(identity, obj.Owner) {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

// Download opens an object for streaming. The caller must Close the result.
func (s *Service) Download(ctx context.Context, identity auth.Identity, id string) (*Download, error) {
	obj, err := s.Describe(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	return newDownload(obj, s.Store.openObject(ctx, obj), s.Metrics), nil
}

// List returns the caller's own objects.
func (s *Service) List(ctx context.Context, identity auth.Identity) ([]Object, error) {
	if identity.Subject == "" {
		return nil, auth.ErrUnauthenticated
	}
	return s.Store.ListByOwner(ctx, identity.Subject)
}

// Delete removes one object. A missing object and a foreign one both yield ErrNotFound.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if _, err := s.Describe(ctx, identity, id); err != nil {
		return err
	}
	removed, err := s.Store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// PurgeOwner deletes every object of owner. It is used when an account is removed
// and is not reachable by regular callers.
func (s *Service) PurgeOwner(ctx context.Context, owner string) (PurgeResult, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return PurgeResult{}, ErrInvalidInput
	}
	return s.Store.DeleteAllByOwner(ctx, owner)
}

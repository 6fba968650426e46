package account

import (
	"context"
	"errors"
	"strings"

	"filevault/internal/objects"
	"filevault/internal/shared/telemetry"
	"filevault/internal/shared/util"
)

// ErrSubjectRequired is returned when no account subject is given.
var ErrSubjectRequired = errors.New("subject is required")

// Purger deletes every stored object of an owner.
type Purger interface {
	PurgeOwner(ctx context.Context, owner string) (objects.PurgeResult, error)
}

// Service handles account removal. Credentials live outside this service; removing an
// account here means removing everything it stored.
type Service struct {
	Objects Purger
}

// RemovalResult reports what was removed for an account.
type RemovalResult struct {
	Owner     string   `json:"owner"`
	Deleted   int      `json:"deleted"`
	FailedIDs []string `json:"failedIds"`
}

// Partial reports whether some objects could not be deleted.
func (r RemovalResult) Partial() bool {
	return len(r.FailedIDs) > 0
}

func NewService(purger Purger) *Service {
	return &Service{Objects: purger}
}

// RemoveAccount deletes all objects owned by subject.
func (s *Service) RemoveAccount(ctx context.Context, subject string) (RemovalResult, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return RemovalResult{}, ErrSubjectRequired
	}

	res, err := s.Objects.PurgeOwner(ctx, subject)
	if err != nil {
		return RemovalResult{}, err
	}

	failed := res.Failed
	if failed == nil {
		failed = []string{}
	}
	telemetry.Info("account.removed", map[string]any{
		"owner_key": util.HashKey(subject),
		"deleted":   res.Deleted,
		"failed":    len(failed),
	})
	return RemovalResult{Owner: subject, Deleted: res.Deleted, FailedIDs: failed}, nil
}

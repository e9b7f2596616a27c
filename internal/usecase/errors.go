package usecase

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/federation-scraper/internal/domain/competition"
)

var (
	ErrInvalidInput = crerr.New("invalid input")
	ErrFetch        = crerr.New("page fetch failed")
	ErrExtraction   = crerr.New("payload extraction failed")
	ErrEnumeration  = crerr.New("calendar enumeration failed")
	ErrMatchFetch   = crerr.New("match fetch failed")
	ErrPersist      = crerr.New("dataset persist failed")
)

// MatchFetchError isolates the failure of a single match. It matches ErrMatchFetch
// and unwraps to the fetch or extraction cause.
type MatchFetchError struct {
	Item competition.WorkItem
	Err  error
}

func (e *MatchFetchError) Error() string {
	return fmt.Sprintf("fetch match %s (round %d): %v", e.Item.MatchID, e.Item.Round, e.Err)
}

func (e *MatchFetchError) Unwrap() error {
	return e.Err
}

func (e *MatchFetchError) Is(target error) bool {
	return target == ErrMatchFetch
}

func asMatchFetchError(item competition.WorkItem, err error) *MatchFetchError {
	var mfe *MatchFetchError
	if crerr.As(err, &mfe) {
		return mfe
	}
	return &MatchFetchError{Item: item, Err: err}
}

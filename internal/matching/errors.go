package matching

import (
	"errors"

	apperrors "matchmaking-workers/internal/common/errors"
)

// ToStandardError classifies an error returned by the Matcher or Service. Errors that already
// carry a StandardError keep it; sentinel errors from this package are mapped to their codes.
func ToStandardError(err error) *apperrors.StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		return stdErr
	}
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return apperrors.New(apperrors.ErrCodeProfileNotFound, "Profile not found", err.Error(), false)
	case errors.Is(err, ErrInvalidProfile), errors.Is(err, ErrMissingID),
		errors.Is(err, ErrInvalidCapacity), errors.Is(err, ErrNegativeCapacity):
		return apperrors.NewInvalidProfileError(err.Error())
	case errors.Is(err, ErrInvalidWeights):
		return apperrors.NewInvalidMatchRequestError(err.Error())
	case errors.Is(err, ErrMatchFailed):
		return apperrors.NewMatchComputationFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

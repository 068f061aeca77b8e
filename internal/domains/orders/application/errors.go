package application

import (
	"errors"
	"fmt"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrEmptyTargets is returned when a bulk request names no ids.
	ErrEmptyTargets = errors.New("at least one id is required")
	// ErrNotDownloadable is returned for download requests on physical items.
	ErrNotDownloadable = errors.New("item has no downloadable content")
	// ErrNotEntitled is returned when a user asks for content they have not completed a purchase of.
	ErrNotEntitled = errors.New("no completed purchase for this product")
	// ErrAllFailed is returned alongside the result when no unit of a bulk update succeeded.
	ErrAllFailed = errors.New("every unit of the bulk update failed")
	// ErrDownloadsUnavailable is returned when no download linker is configured.
	ErrDownloadsUnavailable = errors.New("downloads are not configured")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrEmptyCarrier) ||
		errors.Is(err, domain.ErrEmptyTrackingNumber) ||
		errors.Is(err, ErrEmptyTargets) ||
		errors.Is(err, ErrNotDownloadable) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

// failureMessage is the per-unit text reported for bulk failures.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "invalid status"
	case errors.Is(err, ErrInvalidInput):
		return "invalid input"
	default:
		return "update failed"
	}
}

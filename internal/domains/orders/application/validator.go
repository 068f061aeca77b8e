package application

import (
	"errors"
	"fmt"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
)

// Vocabulary names accepted by Validator.Validate.
const (
	VocabularyOrderStatus = "order_status"
	VocabularyItemStatus  = "order_item_status"
)

// ErrUnknownVocabulary is returned when Validate is asked about a vocabulary it does not know.
var ErrUnknownVocabulary = errors.New("unknown status vocabulary")

// Validator checks proposed status values against the closed vocabularies.
// Only membership is enforced; any member may follow any other.
type Validator struct{}

// Validate reports whether value belongs to the named vocabulary.
func (Validator) Validate(vocabulary, value string) error {
	switch vocabulary {
	case VocabularyOrderStatus:
		_, err := domain.ParseOrderStatus(value)
		return err
	case VocabularyItemStatus:
		_, err := domain.ParseItemStatus(value)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVocabulary, vocabulary)
	}
}

// OrderStatus parses a raw order status.
func (v Validator) OrderStatus(raw string) (domain.OrderStatus, error) {
	return domain.ParseOrderStatus(raw)
}

// ItemStatus parses a raw item status.
func (v Validator) ItemStatus(raw string) (domain.ItemStatus, error) {
	return domain.ParseItemStatus(raw)
}

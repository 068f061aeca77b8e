package ports

import (
	"context"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

// WorkflowOrchestrator runs bulk order status updates, durably when a workflow engine is available.
type WorkflowOrchestrator interface {
	BulkUpdateOrderStatus(ctx context.Context, input types.BulkUpdateOrderStatusInput) (*bulk.Result[*domain.Order], error)
}

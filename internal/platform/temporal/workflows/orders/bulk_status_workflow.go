package orders

import (
	"go.temporal.io/sdk/workflow"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/platform/temporal/sequences"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

const (
	// BulkStatusWorkflowName is the public identifier for registering the workflow.
	BulkStatusWorkflowName = "orders.workflows.BulkStatusUpdate"
	// OrderStatusTaskQueue is the queue consumed by the worker processing order workflows.
	OrderStatusTaskQueue = "ORDER_STATUS"
)

// BulkStatusWorkflowInput carries a normalized bulk request.
type BulkStatusWorkflowInput struct {
	Command     types.BulkUpdateOrderStatusInput
	Concurrency int
	TraceID     string
}

// BulkStatusWorkflow applies one status to many orders and reports per-order outcomes.
func BulkStatusWorkflow(ctx workflow.Context, input BulkStatusWorkflowInput) (*bulk.Result[*domain.Order], error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("BulkStatusWorkflow started", withTraceID(input.TraceID, "orders", len(input.Command.OrderIDs), "status", input.Command.Status)...)
	result := sequences.RunBulkOrderStatusSequence(ctx, input.Command, input.Concurrency)
	logger.Info("BulkStatusWorkflow completed", withTraceID(input.TraceID, "updated", len(result.Updated), "failed", len(result.Failures))...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

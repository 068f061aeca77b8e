package sequences

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	orderactivities "github.com/KwakOri/lucent-sub001/internal/platform/temporal/activities/orders"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

// RunBulkOrderStatusSequence applies the status to each order in batches of at most concurrency activities.
// One order failing never stops the others.
func RunBulkOrderStatusSequence(ctx workflow.Context, input types.BulkUpdateOrderStatusInput, concurrency int) *bulk.Result[*domain.Order] {
	logger := workflow.GetLogger(ctx)
	if concurrency <= 0 {
		concurrency = bulk.DefaultConcurrency
	}
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				orderactivities.ErrTypeNotFound,
				orderactivities.ErrTypeInvalidStatus,
			},
		},
	}
	actCtx := workflow.WithActivityOptions(ctx, options)

	result := &bulk.Result[*domain.Order]{
		Updated:  make([]*domain.Order, 0, len(input.OrderIDs)),
		Failures: []bulk.Failure{},
	}
	for start := 0; start < len(input.OrderIDs); start += concurrency {
		end := min(start+concurrency, len(input.OrderIDs))
		batch := input.OrderIDs[start:end]
		futures := make([]workflow.Future, len(batch))
		for i, id := range batch {
			futures[i] = workflow.ExecuteActivity(actCtx, orderactivities.UpdateOrderStatusActivityName, types.UpdateOrderStatusInput{
				OrderID: id,
				Status:  input.Status,
				ActorID: input.ActorID,
			})
		}
		for i, future := range futures {
			var order domain.Order
			if err := future.Get(ctx, &order); err != nil {
				logger.Warn("bulk order status unit failed", "orderId", batch[i], "error", err)
				result.Failures = append(result.Failures, bulk.Failure{ID: batch[i], Message: unitFailureMessage(err)})
				continue
			}
			result.Updated = append(result.Updated, &order)
		}
	}
	logger.Info("bulk order status sequence finished", "updated", len(result.Updated), "failed", len(result.Failures))
	return result
}

func unitFailureMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case orderactivities.ErrTypeNotFound:
			return "not found"
		case orderactivities.ErrTypeInvalidStatus:
			return "invalid status"
		}
	}
	return "update failed"
}

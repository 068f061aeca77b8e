package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/memory"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	orderactivities "github.com/KwakOri/lucent-sub001/internal/platform/temporal/activities/orders"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

func TestBulkStatusWorkflow_CollectsPerOrderOutcomes(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	for _, id := range []string{"o-1", "o-2"} {
		_, err := repo.Save(ctx, &domain.Order{
			ID:     id,
			UserID: "user-1",
			Status: domain.OrderStatusShipping,
			Items:  []domain.OrderItem{{ID: id + "-item", Status: domain.ItemStatusShipped}},
		})
		require.NoError(t, err)
	}
	activities := orderactivities.NewActivities(application.NewService(repo))

	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivityWithOptions(activities.UpdateOrderStatus, activity.RegisterOptions{Name: orderactivities.UpdateOrderStatusActivityName})

	env.ExecuteWorkflow(BulkStatusWorkflow, BulkStatusWorkflowInput{
		Command: types.BulkUpdateOrderStatusInput{
			OrderIDs: []string{"o-1", "ghost", "o-2"},
			Status:   "DONE",
			ActorID:  "admin",
		},
		Concurrency: 2,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result bulk.Result[*domain.Order]
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Len(t, result.Updated, 2)
	require.Equal(t, "o-1", result.Updated[0].ID)
	require.Equal(t, "o-2", result.Updated[1].ID)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "ghost", result.Failures[0].ID)
	require.Equal(t, "not found", result.Failures[0].Message)

	item, err := repo.GetItem(ctx, "o-2-item")
	require.NoError(t, err)
	require.Equal(t, domain.ItemStatusCompleted, item.Status)
}

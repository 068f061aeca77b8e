package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	orderworkflows "github.com/KwakOri/lucent-sub001/internal/platform/temporal/workflows/orders"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client      client.Client
	taskQueue   string
	concurrency int
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client, concurrency int) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderStatusTaskQueue, concurrency: concurrency}
}

// BulkUpdateOrderStatus validates the request and runs it as a durable workflow.
// Identical concurrent requests share one workflow run.
func (o *TemporalOrderWorkflows) BulkUpdateOrderStatus(ctx context.Context, input types.BulkUpdateOrderStatusInput) (*bulk.Result[*domain.Order], error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	command, err := normalizeBulkInput(input)
	if err != nil {
		return nil, err
	}
	workflowID := buildBulkStatusWorkflowID(command)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.BulkStatusWorkflow,
		orderworkflows.BulkStatusWorkflowInput{Command: command, Concurrency: o.concurrency, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var result bulk.Result[*domain.Order]
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	if result.AllFailed() {
		return &result, application.ErrAllFailed
	}
	return &result, nil
}

// InlineOrderWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service ports.Service
}

// NewInlineOrderWorkflows wraps the orders service for synchronous execution.
func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

// BulkUpdateOrderStatus delegates to the application service without durable orchestration.
func (o *InlineOrderWorkflows) BulkUpdateOrderStatus(ctx context.Context, input types.BulkUpdateOrderStatusInput) (*bulk.Result[*domain.Order], error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.service.BulkUpdateOrderStatus(ctx, input)
}

func normalizeBulkInput(input types.BulkUpdateOrderStatusInput) (types.BulkUpdateOrderStatusInput, error) {
	if _, err := domain.ParseOrderStatus(input.Status); err != nil {
		return input, fmt.Errorf("%w: %w", application.ErrInvalidInput, err)
	}
	input.OrderIDs = bulk.Normalize(input.OrderIDs)
	if len(input.OrderIDs) == 0 {
		return input, fmt.Errorf("%w: %w", application.ErrInvalidInput, application.ErrEmptyTargets)
	}
	return input, nil
}

func buildBulkStatusWorkflowID(input types.BulkUpdateOrderStatusInput) string {
	ids := append([]string(nil), input.OrderIDs...)
	sort.Strings(ids)
	key := strings.Join([]string{input.Status, input.ActorID, strings.Join(ids, ",")}, "|")
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("orders-bulk-status-%s", hex.EncodeToString(sum[:8]))
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

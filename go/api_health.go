package lucentserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthAPI serves liveness and the read-only status vocabulary.
type HealthAPI struct {
	checks map[string]HealthCheck
}

func NewHealthAPI(checks map[string]HealthCheck) HealthAPI {
	return HealthAPI{checks: checks}
}

// Get /healthz
// Dependency health; 503 when any check fails
func (api *HealthAPI) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(api.checks))
	for name, check := range api.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// Get /order-statuses
// Order and item status vocabularies with labels
func (api *HealthAPI) ListOrderStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"orderStatuses": ordersdomain.OrderStatuses(),
		"itemStatuses":  ordersdomain.ItemStatuses(),
	})
}

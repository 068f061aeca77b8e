//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "lucent-api"
	ConsumerName = "lucent-backoffice"

	StateOrderShipping = "order ord-301 is shipping with two items"
	StateOrderMissing  = "no order with id ord-404"
	StateItemTracked   = "item itm-1 of ord-301 has tracking"
)

const (
	ExistingOrderID = "ord-301"
	MissingOrderID  = "ord-404"
	TrackedItemID   = "itm-1"
	OtherItemID     = "itm-2"
	UnknownItemID   = "itm-999"
	BuyerID         = "usr-buyer"
)

// Placeholder bearer tokens recorded in the pact; the provider swaps them for signed sessions.
const (
	AdminToken = "pact-admin-token"
	BuyerToken = "pact-buyer-token"
)

const (
	ExampleCarrier        = "CJ Logistics"
	ExampleTrackingNumber = "6543210987"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the back-office consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

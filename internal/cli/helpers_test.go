package cli

import (
	"io"
	"testing"

	"github.com/agentwf/pulse/internal/observability"
	"github.com/agentwf/pulse/pkg/models"
)

// testCLIHub builds a hub with every sink disabled, enough for commands
// that only need a non-nil Hub.
func testCLIHub(t *testing.T) *observability.Hub {
	t.Helper()
	return observability.New(models.GlobalConfig{}, io.Discard)
}

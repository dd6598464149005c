package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/workshophq/workshop-backend/internal/scheduler"
	"github.com/workshophq/workshop-backend/internal/service"
	"github.com/workshophq/workshop-backend/internal/storetest"
)

func TestNewScheduleSpecs(t *testing.T) {
	rec := service.NewStateReconciler(storetest.New().Workshops(), service.SystemClock())

	for _, spec := range []string{"@midnight", "@daily", "0 3 * * *"} {
		s, err := scheduler.New(spec, rec, zap.NewNop())
		require.NoError(t, err, spec)
		s.Start()
		s.Stop()
	}

	_, err := scheduler.New("not a schedule", rec, zap.NewNop())
	assert.Error(t, err)
}

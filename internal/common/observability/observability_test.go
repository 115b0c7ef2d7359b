package observability

import (
	"testing"

	"letting-compliance/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
)

func TestWrapJobHandler_CallsHandler(t *testing.T) {
	o := New("compliance-test", "", logger.NewNoOpLogger())
	defer o.Shutdown()

	var seen int64
	wrapped := o.WrapJobHandler("run-notification-checks", func(_ worker.JobClient, job entities.Job) {
		seen = job.Key
	})

	wrapped(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "run-notification-checks"}})

	assert.Equal(t, int64(42), seen)
}

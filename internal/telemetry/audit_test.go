package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.messaging", mock.Anything).Return(nil).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.messaging", "messaging-service", "test")
	userID := int64(7)
	emitter.Emit(context.Background(), "INFO", "message sent", "req-1", &userID)

	publisher.AssertExpectations(t)

	envelope, ok := publisher.Calls[0].Arguments.Get(2).(telemetry.AuditEnvelope)
	require.True(t, ok, "expected an AuditEnvelope payload")
	assert.Equal(t, 1, envelope.SchemaVersion)
	assert.Equal(t, "audit_log", envelope.EventType)
	assert.Equal(t, "messaging-service", envelope.Service)
	assert.Equal(t, "test", envelope.Environment)
	assert.Equal(t, "req-1", envelope.RequestID)
	require.NotNil(t, envelope.UserID)
	assert.Equal(t, int64(7), *envelope.UserID)
	assert.Equal(t, "INFO", envelope.Payload.Level)
	assert.Equal(t, "message sent", envelope.Payload.Text)
	assert.NotEmpty(t, envelope.OccurredAt)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.messaging", mock.Anything).
		Return(errors.New("broker down")).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.messaging", "messaging-service", "test")
	emitter.Emit(context.Background(), "ERROR", "internal error", "req-2", nil)

	publisher.AssertExpectations(t)
}

func TestEmitWithoutPublisherIsNoop(t *testing.T) {
	emitter := telemetry.NewAuditEmitter(nil, "audit.messaging", "messaging-service", "test")
	emitter.Emit(context.Background(), "INFO", "dropped", "req-3", nil)

	var nilEmitter *telemetry.AuditEmitter
	nilEmitter.Emit(context.Background(), "INFO", "dropped", "req-4", nil)
}

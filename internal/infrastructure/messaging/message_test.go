package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsistencyFixMessagePayload(t *testing.T) {
	fix := &ConsistencyFixMessage{
		ProjectID: "proj-1",
		Kind:      "reorder",
		Affected:  []string{"outline-1", "outline-2"},
	}

	msg, err := NewMessage(fix.ProjectID, "consistency_fix", fix.ProjectID, fix)
	require.NoError(t, err)

	var decoded ConsistencyFixMessage
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, []string{"outline-1", "outline-2"}, decoded.Affected)
	assert.Equal(t, "reorder", decoded.Kind)
}

func TestPublishHelpersReturnErrorOnly(t *testing.T) {
	// 调用方以单值 error 形式消费，消息 ID 不外泄
	var _ func(context.Context, *GenerationAuditMessage) error = (&Producer{}).PublishGenerationAudit
	var _ func(context.Context, *ConsistencyFixMessage) error = (&Producer{}).PublishConsistencyFix
}

func TestMessageMetadata(t *testing.T) {
	msg, err := NewMessage("run-1", "generation_audit", "proj-1", map[string]string{"k": "v"})
	require.NoError(t, err)

	msg.SetMetadata("kind", "chapter")
	msg.SetMetadata("status", "completed")
	assert.Equal(t, "chapter", msg.Metadata["kind"])
	assert.Equal(t, "completed", msg.Metadata["status"])
	assert.False(t, msg.CreatedAt.IsZero())
}

package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitas/internal/platform/config"
)

func TestNew_DisabledWithoutBrokers(t *testing.T) {
	client, err := New(context.Background(), config.KafkaConfig{AuditTopic: "audit"})
	require.NoError(t, err)
	assert.Nil(t, client)
}

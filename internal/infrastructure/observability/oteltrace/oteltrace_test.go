package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartWithoutProviderIsNonRecording(t *testing.T) {
	ctx, span := New("").Start(context.Background(), "UC.Checkout", attribute.String("cart.id", "c-1"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.IsRecording())
}

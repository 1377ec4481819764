package mongostore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/mongostore"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/storetest"
	"github.com/dmitrymomot/lessonkit/pkg/mongo"
)

// Set MONGODB_TEST_URL to run against a live server.
func TestStore(t *testing.T) {
	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL is not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, mongo.Config{ConnectionURL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) entitlement.Store {
		db := client.Database("lessonkit_test_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		s := mongostore.New(db)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s
	})
}

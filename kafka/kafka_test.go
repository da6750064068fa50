// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"log/slog"
	"testing"

	"github.com/z5labs/closer"

	"github.com/stretchr/testify/require"
)

func TestClient_nilClientIsNoOp(t *testing.T) {
	guard := closer.New()

	require.Nil(t, Client(context.Background(), guard, nil))
	require.NoError(t, guard.Close())
}

func TestDial_closesClientWithGuard(t *testing.T) {
	guard := closer.New()

	// franz-go connects lazily so no broker needs to be listening for
	// the client to be created, flushed and closed.
	client, err := Dial(
		context.Background(),
		guard,
		[]string{"localhost:9092"},
		Log(slog.Default()),
	)
	require.NoError(t, err)
	require.NotNil(t, client)

	require.NoError(t, guard.Close())
}

func TestDial_invalidSeedBroker(t *testing.T) {
	guard := closer.New()

	_, err := Dial(context.Background(), guard, []string{"host:port:extra"})
	require.Error(t, err, "dialing with a malformed seed broker should fail")

	require.NoError(t, guard.Close())
}

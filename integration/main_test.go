//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/desert-planet/pkg/client"
	"github.com/jwebster45206/desert-planet/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080" // Default to localhost
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func TestMain(m *testing.M) {
	fmt.Printf("Running Desert Planet Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func newClient(t *testing.T) *client.Client {
	t.Helper()
	timeout := time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	c := client.New(apiBaseURL(), timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		t.Fatalf("API is not healthy: %v", err)
	}
	return c
}

func TestSaveRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	saveID := "integration-" + uuid.NewString()
	world := state.NewWorld(8, 6, "desert")
	world.Tiles[2][3] = "structure"
	world.NPCs = append(world.NPCs, state.NPC{ID: "scavenger", X: 4, Y: 4, SpriteID: "npc_scavenger"})
	world.WorkTasks = append(world.WorkTasks, state.WorkTask{ID: "clear_dune", X: 1, Y: 5, Reward: 30})
	gs := state.NewGameState(
		state.Player{X: 3, Y: -2, Credits: 150, SpriteID: "hero"},
		world,
		state.NewGameMetadata(saveID, time.Now()),
	)

	_, err := c.PutSave(ctx, saveID, gs)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, c.DeleteSave(ctx, saveID))
	}()

	loaded, err := c.GetSave(ctx, saveID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs, loaded)

	ids, err := c.ListSaves(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, saveID)
}

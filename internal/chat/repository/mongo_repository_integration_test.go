//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"
	testtool "realtime_chat_service/pkg/test_tool"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var mongoDB *database.MongoDB

func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()

	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		fmt.Printf("failed to start MongoDB container: %v\n", err)
		os.Exit(1)
	}

	mongoDB, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", host, port),
		RetryCount:    5,
		RetryInterval: 2,
	}, "test_chat_db")
	if err != nil {
		fmt.Printf("failed to connect MongoDB: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = mongoDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestMongoMessageRepository(t *testing.T) {
	repo := NewMongoMessageRepository(mongoDB.Database)
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	testMessageRepository(t, repo)
}

func TestMongoGroupRepository(t *testing.T) {
	testGroupRepository(t, NewMongoGroupRepository(mongoDB.Database))
}

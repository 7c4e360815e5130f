package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/config"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recordingNotifier captures emitted events so tests can assert on them
// without a broker.
type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.EventType
}

func (n *recordingNotifier) Notify(kind queue.EventType, _ queue.RelationshipEventData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind)
}

func (n *recordingNotifier) kinds() []queue.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]queue.EventType(nil), n.events...)
}

// memoryStatusCache is an in-process StatusCache for façade tests.
type memoryStatusCache struct {
	mu      sync.Mutex
	entries map[string]RelationshipStatus
}

func newMemoryStatusCache() *memoryStatusCache {
	return &memoryStatusCache{entries: make(map[string]RelationshipStatus)}
}

func (c *memoryStatusCache) Get(_ context.Context, viewerID, targetID string) (RelationshipStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.entries[viewerID+":"+targetID]
	return status, ok
}

func (c *memoryStatusCache) Set(_ context.Context, viewerID, targetID string, status RelationshipStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[viewerID+":"+targetID] = status
}

func (c *memoryStatusCache) Invalidate(_ context.Context, viewerID, targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, viewerID+":"+targetID)
}

type testEnv struct {
	db            *gorm.DB
	userRepo      *repository.UserRepository
	followRepo    *repository.FollowRepository
	requestRepo   *repository.FollowRequestRepository
	inboxRepo     *repository.InboxRepository
	notifier      *recordingNotifier
	relationships *RelationshipService
	requests      *FollowRequestService
	inbox         *InboxService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FollowEdge{},
		&models.FollowRequest{},
		&models.InboxItem{},
	))

	log := logger.NewLogger()
	notifier := &recordingNotifier{}
	cfg := &config.GraphConfig{
		FanoutListLimit: 30,
		ViewListLimit:   50,
		PageSize:        20,
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	requestRepo := repository.NewFollowRequestRepository(db)
	inboxRepo := repository.NewInboxRepository(db)

	return &testEnv{
		db:            db,
		userRepo:      userRepo,
		followRepo:    followRepo,
		requestRepo:   requestRepo,
		inboxRepo:     inboxRepo,
		notifier:      notifier,
		relationships: NewRelationshipService(followRepo, userRepo, notifier, cfg, log),
		requests:      NewFollowRequestService(requestRepo, followRepo, notifier, log),
		inbox:         NewInboxService(inboxRepo),
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: name,
		Email:    name + "@example.com",
		Password: "hashed",
		IsActive: true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) counters(t *testing.T, id uuid.UUID) (followers, following int64) {
	t.Helper()
	var user models.User
	require.NoError(t, e.db.First(&user, "id = ?", id).Error)
	return user.FollowersCount, user.FollowingCount
}

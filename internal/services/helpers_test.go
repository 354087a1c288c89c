package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/internal/testutil"
	"github.com/maxim190404/foodgram-st/pkg/cache"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"gorm.io/gorm"
)

const testBaseURL = "http://testserver"

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngDataURI() string {
	return media.EncodeDataURI("image/png", testPNG)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := value.(queue.Event); ok {
		p.events = append(p.events, event)
	}
	return p.err
}

func (p *fakePublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]queue.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func (p *fakePublisher) last() queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Store(ctx context.Context, data []byte, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := "/media/" + name
	s.objects[uri] = data
	return uri, nil
}

func (s *memStorage) Delete(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, uri)
	s.deleted = append(s.deleted, uri)
	return nil
}

func (s *memStorage) has(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[strings.TrimPrefix(uri, testBaseURL)]
	return ok
}

type memCache struct {
	data map[string][]byte
	gets int
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.gets++
	if c.err != nil {
		return c.err
	}
	data, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c.err != nil {
		return c.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

type testEnv struct {
	db          *gorm.DB
	publisher   *fakePublisher
	storage     *memStorage
	cache       *memCache
	users       *UserService
	follows     *FollowService
	recipes     *RecipeService
	favorites   *MembershipService
	cart        *MembershipService
	shopping    *ShoppingListService
	ingredients *IngredientService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.NewDiscardLogger()
	publisher := &fakePublisher{}
	store := newMemStorage()
	memc := newMemCache()

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	cartRepo := repository.NewShoppingCartRepository(db)

	return &testEnv{
		db:          db,
		publisher:   publisher,
		storage:     store,
		cache:       memc,
		users:       NewUserService(userRepo, followRepo, store, publisher, log),
		follows:     NewFollowService(userRepo, followRepo, recipeRepo, publisher, log),
		recipes:     NewRecipeService(recipeRepo, ingredientRepo, followRepo, favoriteRepo, cartRepo, store, publisher, log),
		favorites:   NewFavoriteService(favoriteRepo, recipeRepo, publisher, log),
		cart:        NewShoppingCartService(cartRepo, recipeRepo, publisher, log),
		shopping:    NewShoppingListService(cartRepo, recipeRepo, log),
		ingredients: NewIngredientService(ingredientRepo, memc, time.Minute, log),
	}
}

package repository_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/database/dbtest"
	"github.com/warmersun/warmersun-api/internal/model"
	"github.com/warmersun/warmersun-api/internal/repository"
)

type repos struct {
	parks      *repository.ParkRepo
	spots      *repository.SpotRepo
	actions    *repository.ActionRepo
	categories *repository.CategoryRepo
	users      *repository.UserRepo
	items      *repository.ShoppingItemRepo
	images     *repository.ImageRepo
}

func newRepos(db *database.DB) repos {
	return repos{
		parks:      repository.NewParkRepo(db),
		spots:      repository.NewSpotRepo(db),
		actions:    repository.NewActionRepo(db),
		categories: repository.NewCategoryRepo(db),
		users:      repository.NewUserRepo(db),
		items:      repository.NewShoppingItemRepo(db),
		images:     repository.NewImageRepo(db),
	}
}

// fixture is a park with one verified spot, one action at that spot, two
// categories on the action and two participating users.
type fixture struct {
	park   model.Park
	spot   model.Spot
	action model.Action
	alice  *model.User
	bob    *model.User
}

func seed(t *testing.T, r repos) fixture {
	t.Helper()
	ctx := context.Background()

	park := model.Park{Name: "Central", Longitude: -76.5, Latitude: 42.4}
	require.NoError(t, r.parks.Create(ctx, &park))

	spot := model.NewSpot(park.ID, "Pond", -76.51, 42.41, nil)
	require.NoError(t, r.spots.Create(ctx, &spot))

	alice, err := r.users.Create(ctx, "alice", "hash-a")
	require.NoError(t, err)
	bob, err := r.users.Create(ctx, "bob", "hash-b")
	require.NoError(t, err)

	cleanup := model.ActionCategory{Name: "Cleanup", Point: 3}
	require.NoError(t, r.categories.Create(ctx, &cleanup))
	planting := model.ActionCategory{Name: "Planting", Point: 5}
	require.NoError(t, r.categories.Create(ctx, &planting))

	action := model.Action{Title: "Pick litter", Description: "north shore", SpotID: spot.ID, MinuteDuration: 30}
	require.NoError(t, r.actions.Create(ctx, &action,
		[]uint64{alice.ID, bob.ID}, []uint64{cleanup.ID, planting.ID}))

	return fixture{park: park, spot: spot, action: action, alice: alice, bob: bob}
}

func TestActionVerifyCreditsEveryUserOnce(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	res, err := r.actions.Verify(ctx, f.action.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Rate)
	assert.Equal(t, int64(150), res.Points)
	assert.ElementsMatch(t, []uint64{f.alice.ID, f.bob.ID}, res.UserIDs)

	for _, id := range []uint64{f.alice.ID, f.bob.ID} {
		u, err := r.users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(150), u.Points)
		assert.Equal(t, int64(30), u.VolunteeredMinutes)
	}

	a, err := r.actions.GetByID(ctx, f.action.ID)
	require.NoError(t, err)
	assert.True(t, a.IsVerified)

	_, err = r.actions.Verify(ctx, f.action.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyVerified)

	u, err := r.users.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), u.Points, "second verification must not credit again")
	assert.Equal(t, int64(30), u.VolunteeredMinutes)
}

func TestActionVerifyConcurrentCallsCreditOnce(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.actions.Verify(ctx, f.action.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, repository.ErrAlreadyVerified) {
				dups++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, dups)

	u, err := r.users.GetByID(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), u.Points)
}

func TestActionVerifyErrors(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	_, err := r.actions.Verify(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrActionNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bare := model.Action{Title: "Survey", Description: "birds", SpotID: f.spot.ID, MinuteDuration: 10}
	require.NoError(t, r.actions.Create(ctx, &bare, []uint64{f.alice.ID}, nil))

	_, err = r.actions.Verify(ctx, bare.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	a, err := r.actions.GetByID(ctx, bare.ID)
	require.NoError(t, err)
	assert.False(t, a.IsVerified, "failed verification must roll back the flag")

	u, err := r.users.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, u.Points)
}

func TestActionVerifyRejectsOverflowingCredit(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	huge := model.Action{Title: "Marathon", Description: "forever", SpotID: f.spot.ID, MinuteDuration: 1 << 62}
	cats, err := r.actions.Categories(ctx, f.action.ID)
	require.NoError(t, err)
	require.NoError(t, r.actions.Create(ctx, &huge, []uint64{f.alice.ID}, []uint64{cats[0].ID}))

	_, err = r.actions.Verify(ctx, huge.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	a, err := r.actions.GetByID(ctx, huge.ID)
	require.NoError(t, err)
	assert.False(t, a.IsVerified)
	u, err := r.users.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, u.Points)
	assert.Zero(t, u.VolunteeredMinutes)
}

func TestActionVerifyRejectsSaturatedUser(t *testing.T) {
	db := dbtest.Open(t)
	r := newRepos(db)
	f := seed(t, r)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "UPDATE users SET points = ? WHERE id = ?", int64(math.MaxInt64-100), f.bob.ID)
	require.NoError(t, err)

	_, err = r.actions.Verify(ctx, f.action.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidState)

	a, err := r.actions.GetByID(ctx, f.action.ID)
	require.NoError(t, err)
	assert.False(t, a.IsVerified, "no user is credited when one total would overflow")
	u, err := r.users.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, u.Points)
	u, err = r.users.GetByID(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-100), u.Points)
}

func TestActionCreateRejectsMissingReferences(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	a := model.Action{Title: "x", Description: "y", SpotID: 424242}
	assert.ErrorIs(t, r.actions.Create(ctx, &a, nil, nil), repository.ErrSpotNotFound)

	a = model.Action{Title: "x", Description: "y", SpotID: f.spot.ID}
	assert.ErrorIs(t, r.actions.Create(ctx, &a, []uint64{777}, nil), repository.ErrUserNotFound)
	assert.ErrorIs(t, r.actions.Create(ctx, &a, nil, []uint64{777}), repository.ErrCategoryNotFound)
}

func TestActionCreateDefaultsTime(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	a := model.Action{Title: "x", Description: "y", SpotID: f.spot.ID}
	require.NoError(t, r.actions.Create(ctx, &a, nil, nil))
	assert.False(t, a.Time.Before(before))
	assert.False(t, a.IsVerified)
}

func TestActionLinks(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	carol, err := r.users.Create(ctx, "carol", "hash-c")
	require.NoError(t, err)
	require.NoError(t, r.actions.AddUser(ctx, f.action.ID, carol.ID))
	assert.ErrorIs(t, r.actions.AddUser(ctx, f.action.ID, carol.ID), repository.ErrAlreadyExists)
	assert.ErrorIs(t, r.actions.AddUser(ctx, 555, carol.ID), repository.ErrActionNotFound)
	assert.ErrorIs(t, r.actions.AddUser(ctx, f.action.ID, 555), repository.ErrUserNotFound)

	users, err := r.actions.Users(ctx, f.action.ID)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	weed := model.ActionCategory{Name: "Weeding", Point: 9}
	require.NoError(t, r.categories.Create(ctx, &weed))
	require.NoError(t, r.actions.AddCategory(ctx, f.action.ID, weed.ID))

	res, err := r.actions.Verify(ctx, f.action.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.Rate, "rate is the highest category point")

	mine, err := r.actions.ListByUser(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.action.ID, mine[0].ID)
}

func TestListsHideUnverified(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	suggested := model.NewSpot(f.park.ID, "Meadow", -76.52, 42.42, &f.alice.ID)
	require.NoError(t, r.spots.Create(ctx, &suggested))
	assert.False(t, suggested.IsVerified)
	assert.True(t, f.spot.IsVerified)

	spots, err := r.spots.ListVerifiedByPark(ctx, f.park.ID)
	require.NoError(t, err)
	require.Len(t, spots, 1)
	assert.Equal(t, f.spot.ID, spots[0].ID)

	got, err := r.spots.GetByID(ctx, suggested.ID)
	require.NoError(t, err, "unverified spots stay reachable by id")
	require.NotNil(t, got.SuggesterID)
	assert.Equal(t, f.alice.ID, *got.SuggesterID)

	require.NoError(t, r.spots.Verify(ctx, suggested.ID))
	require.NoError(t, r.spots.Verify(ctx, suggested.ID), "spot verification is idempotent")
	spots, err = r.spots.ListVerifiedByPark(ctx, f.park.ID)
	require.NoError(t, err)
	assert.Len(t, spots, 2)

	actions, err := r.actions.ListVerifiedBySpot(ctx, f.spot.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)

	_, err = r.actions.Verify(ctx, f.action.ID)
	require.NoError(t, err)
	actions, err = r.actions.ListVerifiedBySpot(ctx, f.spot.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)

	cats, err := r.actions.Categories(ctx, f.action.ID)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	byCat, err := r.actions.ListVerifiedByCategory(ctx, cats[0].ID)
	require.NoError(t, err)
	assert.Len(t, byCat, 1)

	_, err = r.spots.ListVerifiedByPark(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrParkNotFound)
	assert.ErrorIs(t, r.spots.Verify(ctx, 999), repository.ErrSpotNotFound)
}

func TestSpotCreateWithUnknownSuggester(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)

	ghost := uint64(31337)
	s := model.NewSpot(f.park.ID, "Nowhere", 0, 0, &ghost)
	assert.ErrorIs(t, r.spots.Create(context.Background(), &s), repository.ErrUserNotFound)

	s = model.NewSpot(4040, "Nowhere", 0, 0, nil)
	assert.ErrorIs(t, r.spots.Create(context.Background(), &s), repository.ErrParkNotFound)
}

func TestParkDeleteCascades(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	_, err := r.images.Create(ctx, model.OwnerSpot, f.spot.ID, "c3BvdA==")
	require.NoError(t, err)
	_, err = r.images.Create(ctx, model.OwnerAction, f.action.ID, "YWN0aW9u")
	require.NoError(t, err)

	require.NoError(t, r.parks.Delete(ctx, f.park.ID))

	_, err = r.parks.GetByID(ctx, f.park.ID)
	assert.ErrorIs(t, err, repository.ErrParkNotFound)
	_, err = r.spots.GetByID(ctx, f.spot.ID)
	assert.ErrorIs(t, err, repository.ErrSpotNotFound)
	_, err = r.actions.GetByID(ctx, f.action.ID)
	assert.ErrorIs(t, err, repository.ErrActionNotFound)

	// users survive and lose the association
	mine, err := r.actions.ListByUser(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	assert.ErrorIs(t, r.parks.Delete(ctx, f.park.ID), repository.ErrParkNotFound)
}

func TestDeleteOtherEntities(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	cats, err := r.actions.Categories(ctx, f.action.ID)
	require.NoError(t, err)
	require.NoError(t, r.categories.Delete(ctx, cats[1].ID))
	cats, err = r.actions.Categories(ctx, f.action.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	suggested := model.NewSpot(f.park.ID, "Meadow", 0, 0, &f.bob.ID)
	require.NoError(t, r.spots.Create(ctx, &suggested))
	_, err = r.images.Create(ctx, model.OwnerUser, f.bob.ID, "Ym9i")
	require.NoError(t, err)

	require.NoError(t, r.users.Delete(ctx, f.bob.ID))
	_, err = r.users.GetByID(ctx, f.bob.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	s, err := r.spots.GetByID(ctx, suggested.ID)
	require.NoError(t, err)
	assert.Nil(t, s.SuggesterID)

	require.NoError(t, r.actions.Delete(ctx, f.action.ID))
	_, err = r.actions.GetByID(ctx, f.action.ID)
	assert.ErrorIs(t, err, repository.ErrActionNotFound)

	require.NoError(t, r.spots.Delete(ctx, f.spot.ID))
	assert.ErrorIs(t, r.spots.Delete(ctx, f.spot.ID), repository.ErrSpotNotFound)

	item := model.ShoppingItem{Name: "Gloves", Price: 4.5, Description: "pair"}
	require.NoError(t, r.items.Create(ctx, &item))
	_, err = r.images.Create(ctx, model.OwnerShoppingItem, item.ID, "Z2xvdmVz")
	require.NoError(t, err)
	require.NoError(t, r.items.Delete(ctx, item.ID))
	_, err = r.items.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, repository.ErrShoppingItemNotFound)
}

func TestUniqueNames(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	ctx := context.Background()

	c := model.ActionCategory{Name: "Cleanup", Point: 1}
	require.NoError(t, r.categories.Create(ctx, &c))
	dup := model.ActionCategory{Name: "Cleanup", Point: 2}
	assert.ErrorIs(t, r.categories.Create(ctx, &dup), repository.ErrAlreadyExists)

	_, err := r.users.Create(ctx, "alice", "h")
	require.NoError(t, err)
	_, err = r.users.Create(ctx, "alice", "h2")
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	u, err := r.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h", u.PasswordHash)
	_, err = r.users.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestImages(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	f := seed(t, r)
	ctx := context.Background()

	_, err := r.images.ListByOwner(ctx, model.OwnerSpot, f.spot.ID)
	assert.ErrorIs(t, err, repository.ErrNoImages)
	_, err = r.images.ListByOwner(ctx, model.OwnerSpot, 8888)
	assert.ErrorIs(t, err, repository.ErrSpotNotFound)
	_, err = r.images.Create(ctx, model.OwnerAction, 8888, "eA==")
	assert.ErrorIs(t, err, repository.ErrActionNotFound)

	img, err := r.images.Create(ctx, model.OwnerSpot, f.spot.ID, "aGVsbG8=")
	require.NoError(t, err)
	require.NotNil(t, img.SpotID)
	assert.Nil(t, img.ActionID)

	list, err := r.images.ListByOwner(ctx, model.OwnerSpot, f.spot.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "aGVsbG8=", list[0].Binary)
	assert.Equal(t, f.spot.ID, *list[0].SpotID)
}

func TestListEntities(t *testing.T) {
	r := newRepos(dbtest.Open(t))
	seed(t, r)
	ctx := context.Background()

	parks, err := r.parks.List(ctx)
	require.NoError(t, err)
	assert.Len(t, parks, 1)
	cats, err := r.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	users, err := r.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	items, err := r.items.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

package memory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	"github.com/vladislavdragonenkov/greekgods/internal/storage/memory"
)

func newSeededRepo(t *testing.T) *memory.GreekGodRepository {
	t.Helper()
	repo, err := memory.NewGreekGodRepository(domain.SeedGreekGods())
	require.NoError(t, err)
	return repo
}

func payload(t *testing.T, body string) domain.Payload {
	t.Helper()
	p, err := domain.ParsePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func ids(gods []domain.GreekGod) []int64 {
	result := make([]int64, 0, len(gods))
	for _, god := range gods {
		result = append(result, god.ID)
	}
	return result
}

func TestNewGreekGodRepository_Counter(t *testing.T) {
	repo := newSeededRepo(t)
	assert.Equal(t, int64(16), repo.NextID())

	empty, err := memory.NewGreekGodRepository(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), empty.NextID())

	sparse, err := memory.NewGreekGodRepository([]domain.GreekGod{{ID: 40, Name: "Nyx"}, {ID: 3, Name: "Gaia"}})
	require.NoError(t, err)
	assert.Equal(t, int64(41), sparse.NextID())
}

func TestNewGreekGodRepository_InvalidSeed(t *testing.T) {
	tests := []struct {
		name string
		seed []domain.GreekGod
	}{
		{name: "duplicate id", seed: []domain.GreekGod{{ID: 1, Name: "Zeus"}, {ID: 1, Name: "Hera"}}},
		{name: "empty name", seed: []domain.GreekGod{{ID: 1}}},
		{name: "zero id", seed: []domain.GreekGod{{Name: "Chaos"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := memory.NewGreekGodRepository(tt.seed)
			require.ErrorIs(t, err, domain.ErrInvalidSeed)
		})
	}
}

func TestGreekGodRepository_ListReturnsCopyInOrder(t *testing.T) {
	repo := newSeededRepo(t)

	gods, err := repo.List()
	require.NoError(t, err)
	require.Len(t, gods, 15)
	assert.Equal(t, "Zeus", gods[0].Name)

	gods[0].Name = "mutated"
	again, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, "Zeus", again[0].Name)
}

func TestGreekGodRepository_ListEmptyIsNotNil(t *testing.T) {
	repo, err := memory.NewGreekGodRepository(nil)
	require.NoError(t, err)

	gods, err := repo.List()
	require.NoError(t, err)
	assert.NotNil(t, gods)
	assert.Empty(t, gods)
}

func TestGreekGodRepository_GetNotFound(t *testing.T) {
	repo := newSeededRepo(t)

	_, err := repo.Get(999)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), "999")

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(999), nf.ID)
}

func TestGreekGodRepository_CreateAssignsNextID(t *testing.T) {
	repo := newSeededRepo(t)

	created, err := repo.Create(payload(t, `{"name":"Pan"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(16), created.ID)
	assert.Equal(t, "Pan", created.Name)
	assert.False(t, created.IsDemiGod.IsSet(), "isDemiGod must not be defaulted")
	assert.False(t, created.Power.IsSet())
	assert.Equal(t, int64(17), repo.NextID())

	gods, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, created, gods[len(gods)-1])
}

func TestGreekGodRepository_CreateIgnoresClientID(t *testing.T) {
	repo := newSeededRepo(t)

	created, err := repo.Create(payload(t, `{"id":1,"name":"Pan","isDemiGod":true}`))
	require.NoError(t, err)
	assert.Equal(t, int64(16), created.ID)

	zeus, err := repo.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Zeus", zeus.Name)
}

func TestGreekGodRepository_CreateValidation(t *testing.T) {
	repo := newSeededRepo(t)

	for _, body := range []string{`{}`, `{"name":12}`, `{"name":""}`, `{"isDemiGod":true}`} {
		_, err := repo.Create(payload(t, body))
		require.ErrorIs(t, err, domain.ErrNameRequired, body)
	}

	assert.Equal(t, int64(16), repo.NextID(), "failed creates must not consume ids")
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 15, count)
}

func TestGreekGodRepository_IDsAreNeverReused(t *testing.T) {
	repo := newSeededRepo(t)

	pan, err := repo.Create(payload(t, `{"name":"Pan"}`))
	require.NoError(t, err)
	require.Equal(t, int64(16), pan.ID)

	_, err = repo.Delete(16)
	require.NoError(t, err)

	hecate, err := repo.Create(payload(t, `{"name":"Hecate"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(17), hecate.ID)

	_, err = repo.Get(16)
	assert.True(t, domain.IsNotFound(err))
}

func TestGreekGodRepository_ReplaceDiscardsPriorFields(t *testing.T) {
	repo := newSeededRepo(t)

	replaced, err := repo.Replace(3, payload(t, `{"name":"Neptune"}`))
	require.NoError(t, err)

	assert.Equal(t, domain.GreekGod{ID: 3, Name: "Neptune"}, replaced)

	gods, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, replaced, gods[2], "replace must keep the position")
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, ids(gods))
}

func TestGreekGodRepository_ReplaceNotFoundBeforeValidation(t *testing.T) {
	repo := newSeededRepo(t)

	_, err := repo.Replace(999, payload(t, `{"name":42}`))
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err), "existence check must precede validation")

	_, err = repo.Replace(1, payload(t, `{"name":42}`))
	require.ErrorIs(t, err, domain.ErrNameRequired)

	zeus, err := repo.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Zeus", zeus.Name, "failed replace must not change the record")
}

func TestGreekGodRepository_PartialUpdateMerges(t *testing.T) {
	repo := newSeededRepo(t)

	updated, err := repo.PartialUpdate(1, payload(t, `{"isDemiGod":true}`))
	require.NoError(t, err)

	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, "Zeus", updated.Name)
	power, _ := updated.Power.Get()
	assert.Equal(t, "Thunder", power)
	flag, ok := updated.IsDemiGod.Get()
	assert.True(t, ok)
	assert.True(t, flag)

	stored, err := repo.Get(1)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestGreekGodRepository_PartialUpdateEmptyPayloadIsNoop(t *testing.T) {
	repo := newSeededRepo(t)
	before, err := repo.Get(5)
	require.NoError(t, err)

	after, err := repo.PartialUpdate(5, payload(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGreekGodRepository_PartialUpdateValidation(t *testing.T) {
	repo := newSeededRepo(t)

	_, err := repo.PartialUpdate(999, payload(t, `{"name":1}`))
	assert.True(t, domain.IsNotFound(err))

	_, err = repo.PartialUpdate(1, payload(t, `{"name":1,"isDemiGod":true}`))
	require.ErrorIs(t, err, domain.ErrNameNotString)

	zeus, err := repo.Get(1)
	require.NoError(t, err)
	flag, _ := zeus.IsDemiGod.Get()
	assert.False(t, flag, "failed patch must not apply any field")
}

func TestGreekGodRepository_DeleteShiftsEntries(t *testing.T) {
	repo := newSeededRepo(t)

	removed, err := repo.Delete(2)
	require.NoError(t, err)
	assert.Equal(t, "Hera", removed.Name)

	gods, err := repo.List()
	require.NoError(t, err)
	require.Len(t, gods, 14)
	assert.Equal(t, []int64{1, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, ids(gods))

	_, err = repo.Delete(2)
	assert.True(t, domain.IsNotFound(err))
}

func TestGreekGodRepository_OperationsOnUnknownID(t *testing.T) {
	repo := newSeededRepo(t)
	body := payload(t, `{"name":"Nobody"}`)

	_, err := repo.Get(0)
	assert.True(t, domain.IsNotFound(err))
	_, err = repo.Replace(-1, body)
	assert.True(t, domain.IsNotFound(err))
	_, err = repo.PartialUpdate(16, body)
	assert.True(t, domain.IsNotFound(err))
	_, err = repo.Delete(16)
	assert.True(t, domain.IsNotFound(err))
}

func TestGreekGodRepository_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	repo := newSeededRepo(t)
	const workers = 50
	body := payload(t, `{"name":"Nymph"}`)

	var wg sync.WaitGroup
	results := make(chan int64, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			god, err := repo.Create(body)
			if err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			results <- god.ID
			_, _ = repo.List()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]struct{}, workers)
	for id := range results {
		_, dup := seen[id]
		require.False(t, dup, "id %d assigned twice", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers)
	assert.Equal(t, int64(16+workers), repo.NextID())
	require.NoError(t, repo.Verify())
}

func TestGreekGodRepository_Verify(t *testing.T) {
	repo := newSeededRepo(t)
	require.NoError(t, repo.Verify())

	_, err := repo.Create(payload(t, `{"name":"Pan"}`))
	require.NoError(t, err)
	require.NoError(t, repo.Verify())
}

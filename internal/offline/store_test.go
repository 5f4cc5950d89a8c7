package offline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/dex/internal/pokeapi"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dex.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fullRecord(id int, name string) pokeapi.Record {
	return pokeapi.Record{
		ID:   id,
		Name: name,
		Sprites: pokeapi.Sprites{
			FrontDefault: "https://img/front/" + name + ".png",
			Other: pokeapi.OtherSprites{
				OfficialArtwork: pokeapi.Artwork{FrontDefault: "https://img/art/" + name + ".png"},
			},
		},
		Types:          []pokeapi.TypeSlot{{Slot: 1, Type: pokeapi.NamedLinkRef{Name: "fire"}}},
		Height:         6,
		Weight:         85,
		BaseExperience: 62,
	}
}

func TestLoad_EmptyStoreReturnsNil(t *testing.T) {
	s := testStore(t)
	assert.Nil(t, s.Load(context.Background()))
}

func TestSaveThenLoad_PersistsReducedShape(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Save(ctx, []pokeapi.Record{fullRecord(4, "charmander"), fullRecord(5, "charmeleon")})

	got := s.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].ID)
	assert.Equal(t, "charmander", got[0].Name)
	assert.Equal(t, "https://img/art/charmander.png", got[0].PrimarySprite())
	assert.Equal(t, []string{"fire"}, got[0].Categories())
	assert.Zero(t, got[0].Weight, "physical stats are not persisted")
	assert.Zero(t, got[0].BaseExperience)
}

func TestLoadSaveLoad_IsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Save(ctx, []pokeapi.Record{fullRecord(1, "bulbasaur"), fullRecord(2, "ivysaur")})
	first := s.Load(ctx)
	s.Save(ctx, first)
	second := s.Load(ctx)

	assert.Equal(t, first, second)
}

func TestSave_ReplacesWholesale(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Save(ctx, []pokeapi.Record{fullRecord(1, "bulbasaur"), fullRecord(2, "ivysaur")})
	s.Save(ctx, []pokeapi.Record{fullRecord(25, "pikachu")})

	got := s.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "pikachu", got[0].Name)
}

func TestLoad_CorruptDataFailsSoft(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.conn.Exec(`INSERT INTO kv (key, value, encoding) VALUES (?, ?, ?)`, SnapshotKey, []byte("{not json"), encodingJSON)
	require.NoError(t, err)
	assert.Nil(t, s.Load(ctx))

	_, err = s.conn.Exec(`UPDATE kv SET value = ?, encoding = ? WHERE key = ?`, []byte("garbage"), encodingZstdJSON, SnapshotKey)
	require.NoError(t, err)
	assert.Nil(t, s.Load(ctx))
}

func TestLoad_ReadsPlainJSONRows(t *testing.T) {
	s := testStore(t)
	_, err := s.conn.Exec(`INSERT INTO kv (key, value, encoding) VALUES (?, ?, ?)`,
		SnapshotKey, []byte(`[{"id":7,"name":"squirtle","sprites":{"other":{"official-artwork":{}}}}]`), encodingJSON)
	require.NoError(t, err)

	got := s.Load(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "squirtle", got[0].Name)
}

func TestInfoAndClear(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.Records)

	s.Save(ctx, []pokeapi.Record{fullRecord(1, "bulbasaur")})
	info, err = s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Records)
	assert.Equal(t, encodingZstdJSON, info.Encoding)
	assert.Positive(t, info.Bytes)
	assert.False(t, info.UpdatedAt.IsZero())

	require.NoError(t, s.Clear(ctx))
	assert.Nil(t, s.Load(ctx))
}

func TestReduce_DropsEmptySlots(t *testing.T) {
	got := Reduce([]pokeapi.Record{{}, fullRecord(1, "bulbasaur"), {}})
	require.Len(t, got, 1)
	assert.Equal(t, "bulbasaur", got[0].Name)
	assert.Nil(t, Reduce(nil))
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	assert.Nil(t, s.Load(context.Background()))
	s.Save(context.Background(), []pokeapi.Record{fullRecord(1, "bulbasaur")})
	assert.NoError(t, s.Close())
}

package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxBuilder_NamespacesVariables(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	tb.Add("CREATE presentation SET card = $card, card_id = $card_id", map[string]interface{}{
		"card":    "a",
		"card_id": "b",
	})
	tb.Add("UPDATE type::record($card_id) SET active = true", map[string]interface{}{
		"card_id": "c",
	})

	query, vars := tb.Build()
	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.Contains(t, query, "card = $s1_card, card_id = $s1_card_id;")
	assert.Contains(t, query, "type::record($s2_card_id)")
	assert.Equal(t, map[string]interface{}{
		"s1_card":    "a",
		"s1_card_id": "b",
		"s2_card_id": "c",
	}, vars)
	assert.Equal(t, 2, tb.Len())
}

func TestTxBuilder_Empty(t *testing.T) {
	t.Parallel()

	query, vars := NewTxBuilder().Build()
	assert.Empty(t, query)
	assert.Nil(t, vars)
}

type recordingDB struct {
	queries []string
	vars    []map[string]interface{}
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }
func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.queries = append(r.queries, query)
	r.vars = append(r.vars, vars)
	return []interface{}{map[string]interface{}{"status": "OK", "result": []interface{}{}}}, nil
}
func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	return nil, ErrNotFound
}
func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func TestAtomicBatch_SendsOneQuery(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	batch := NewAtomicBatch().
		Add("CREATE card SET text = $text", map[string]interface{}{"text": "one"}).
		Add("CREATE card SET text = $text", map[string]interface{}{"text": "two"})
	require.Equal(t, 2, batch.Len())

	_, err := batch.Execute(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, db.queries, 1)
	assert.Equal(t, "one", db.vars[0]["s1_text"])
	assert.Equal(t, "two", db.vars[0]["s2_text"])
}

func TestAtomicBatch_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	results, err := NewAtomicBatch().Execute(context.Background(), db)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Empty(t, db.queries)
}

package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talentscout/internal/candidate"
)

// rowStub implements pgx.Row.
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub records statements and answers from canned values.
type poolStub struct {
	execs   []string
	args    [][]any
	execTag string
	execErr error
	row     []byte
	rowErr  error
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, sql)
	p.args = append(p.args, args)
	return pgconn.NewCommandTag(p.execTag), p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return rowStub{scan: func(dest ...any) error {
		if p.rowErr != nil {
			return p.rowErr
		}
		*(dest[0].(*[]byte)) = p.row
		return nil
	}}
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("query not stubbed")
}

func TestPostgresSaveRecordUpserts(t *testing.T) {
	pool := &poolStub{execTag: "INSERT 0 1"}
	s := NewPostgresStoreWithPool(pool, nil)

	require.NoError(t, s.SaveRecord(context.Background(), "abc", sampleRecord()))
	require.Len(t, pool.execs, 1)
	assert.Contains(t, pool.execs[0], "ON CONFLICT (id) DO UPDATE")
	assert.Equal(t, "abc", pool.args[0][0])
	assert.Contains(t, string(pool.args[0][1].([]byte)), `"full_name":"Ada Lovelace"`)
}

func TestPostgresLoadRecord(t *testing.T) {
	pool := &poolStub{row: []byte(`{"consent":true,"full_name":"Ada Lovelace","desired_positions":["MLE"],"language":"en"}`)}
	s := NewPostgresStoreWithPool(pool, nil)

	rec, err := s.LoadRecord(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, rec.Consent)
	assert.Equal(t, []string{"MLE"}, rec.DesiredPositions)

	pool.rowErr = pgx.ErrNoRows
	_, err = s.LoadRecord(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresDeleteMissing(t *testing.T) {
	pool := &poolStub{execTag: "DELETE 0"}
	s := NewPostgresStoreWithPool(pool, nil)

	assert.ErrorIs(t, s.DeleteRecord(context.Background(), "abc"), ErrNotFound)

	pool.execTag = "DELETE 1"
	assert.NoError(t, s.DeleteRecord(context.Background(), "abc"))
}

func TestPostgresProfileKeyIsLowerCased(t *testing.T) {
	pool := &poolStub{execTag: "INSERT 0 1"}
	s := NewPostgresStoreWithPool(pool, nil)

	require.NoError(t, s.SaveProfile(context.Background(), " Ada@Gmail.com", candidate.NewProfile()))
	assert.Equal(t, "ada@gmail.com", pool.args[0][0])
}

func TestPostgresMigrate(t *testing.T) {
	pool := &poolStub{execErr: errors.New("permission denied")}
	s := NewPostgresStoreWithPool(pool, nil)

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(pool.execs[0], "CREATE TABLE IF NOT EXISTS candidates"))
}

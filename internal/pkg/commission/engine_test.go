package commission

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxi-labs/presale/app/models"
)

type chainStore struct {
	referrers   map[string]string
	lookupErr   map[string]error
	failOnLevel int
	rows        []models.Commission
}

func (s *chainStore) GetReferrerID(ctx context.Context, userID string) (*string, error) {
	if err, ok := s.lookupErr[userID]; ok {
		return nil, err
	}
	ref, ok := s.referrers[userID]
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

func (s *chainStore) CreateCommission(ctx context.Context, c *models.Commission) error {
	if s.failOnLevel == c.Level {
		return errors.New("insert failed")
	}
	c.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, *c)
	return nil
}

func TestFanOutThreeLevels(t *testing.T) {
	store := &chainStore{referrers: map[string]string{"A": "B", "B": "C", "C": "D", "D": "E"}}

	created, err := NewEngine().FanOut(context.Background(), store, "A", decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.Len(t, created, 3)
	require.Len(t, store.rows, 3)

	want := []struct {
		user    string
		amount  string
		percent string
	}{
		{"B", "50", "5"},
		{"C", "20", "2"},
		{"D", "10", "1"},
	}
	for i, w := range want {
		row := store.rows[i]
		assert.Equal(t, w.user, row.UserID)
		assert.Equal(t, "A", row.FromUserID)
		assert.Equal(t, i+1, row.Level)
		assert.True(t, decimal.RequireFromString(w.amount).Equal(row.Amount), "level %d amount %s", i+1, row.Amount)
		assert.True(t, decimal.RequireFromString(w.percent).Equal(row.Percentage), "level %d percentage %s", i+1, row.Percentage)
		assert.Equal(t, models.CommissionStatusPending, row.Status)
	}
}

func TestFanOutShortChain(t *testing.T) {
	store := &chainStore{referrers: map[string]string{"A": "B"}}

	created, err := NewEngine().FanOut(context.Background(), store, "A", decimal.NewFromInt(200))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "B", created[0].UserID)
	assert.True(t, decimal.NewFromInt(10).Equal(created[0].Amount))
}

func TestFanOutWithoutReferrerIsNoop(t *testing.T) {
	store := &chainStore{referrers: map[string]string{}}

	created, err := NewEngine().FanOut(context.Background(), store, "A", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, store.rows)
}

func TestFanOutLookupErrorTruncatesChain(t *testing.T) {
	store := &chainStore{
		referrers: map[string]string{"A": "B", "B": "C", "C": "D"},
		lookupErr: map[string]error{"B": errors.New("connection reset")},
	}

	created, err := NewEngine().FanOut(context.Background(), store, "A", decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "B", created[0].UserID)
}

func TestFanOutFirstLookupErrorIsFatal(t *testing.T) {
	store := &chainStore{lookupErr: map[string]error{"A": errors.New("db down")}}

	_, err := NewEngine().FanOut(context.Background(), store, "A", decimal.NewFromInt(1000))
	require.Error(t, err)
}

func TestFanOutInsertErrorIsFatal(t *testing.T) {
	store := &chainStore{
		referrers:   map[string]string{"A": "B", "B": "C", "C": "D"},
		failOnLevel: 2,
	}

	created, err := NewEngine().FanOut(context.Background(), store, "A", decimal.NewFromInt(1000))
	require.Error(t, err)
	assert.Len(t, created, 1)
	assert.Contains(t, err.Error(), "level 2")
}

func TestRate(t *testing.T) {
	e := NewEngine()
	assert.True(t, decimal.RequireFromString("0.05").Equal(e.Rate(1)))
	assert.True(t, decimal.RequireFromString("0.01").Equal(e.Rate(3)))
	assert.True(t, e.Rate(0).IsZero())
	assert.True(t, e.Rate(MaxLevels+1).IsZero())
}

package repository

import (
	"testing"
	"time"

	"ecolearn_backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCollectBadges_SkipsUndecodableRows(t *testing.T) {
	good := badge{
		ID:           uuid.New(),
		Name:         "Eco Starter",
		Criteria:     []byte(`{"kind":"points","target":100}`),
		RewardPoints: 25,
		Rarity:       "common",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	corrupt := badge{
		ID:       uuid.New(),
		Name:     "Broken",
		Criteria: []byte(`{"kind":`),
		IsActive: true,
	}
	alsoGood := badge{
		ID:       uuid.New(),
		Name:     "Streak Keeper",
		Criteria: []byte(`{"kind":"streak","target":7}`),
		IsActive: true,
	}

	badges := collectBadges([]badge{good, corrupt, alsoGood})

	assert.Len(t, badges, 2)
	assert.Equal(t, good.ID, badges[0].ID)
	assert.Equal(t, model.CriteriaPoints, badges[0].Criteria.Kind)
	assert.Equal(t, alsoGood.ID, badges[1].ID)
}

func TestBadgeRow_ToModelRejectsCorruptCriteria(t *testing.T) {
	corrupt := badge{ID: uuid.New(), Criteria: []byte(`not json`)}

	_, err := corrupt.toModel()
	assert.Error(t, err)
}

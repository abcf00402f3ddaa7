package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadgeCriteria_Qualifies(t *testing.T) {
	snapshot := &ProgressSnapshot{
		TotalPoints:      250,
		CompletedLessons: 12,
		ApprovedTasks:    5,
		ApprovedByCat:    map[string]int{"recycling": 3},
		BestQuizScore:    88,
		CurrentStreak:    4,
		LongestStreak:    9,
		Impact:           map[string]float64{"trees_planted": 15},
	}

	tests := []struct {
		name      string
		criteria  BadgeCriteria
		qualifies bool
	}{
		{"points met", BadgeCriteria{Kind: CriteriaPoints, Target: 200}, true},
		{"points short", BadgeCriteria{Kind: CriteriaPoints, Target: 300}, false},
		{"points exact", BadgeCriteria{Kind: CriteriaPoints, Target: 250}, true},
		{"lessons met", BadgeCriteria{Kind: CriteriaLessons, Target: 10}, true},
		{"tasks uncategorized", BadgeCriteria{Kind: CriteriaTasks, Target: 5}, true},
		{"tasks in category", BadgeCriteria{Kind: CriteriaTasks, Target: 3, Category: "recycling"}, true},
		{"tasks missing category", BadgeCriteria{Kind: CriteriaTasks, Target: 1, Category: "cleanup"}, false},
		{"streak uses the longest run", BadgeCriteria{Kind: CriteriaStreak, Target: 7}, true},
		{"streak short", BadgeCriteria{Kind: CriteriaStreak, Target: 10}, false},
		{"quiz score met", BadgeCriteria{Kind: CriteriaQuizScore, Target: 85}, true},
		{"impact met", BadgeCriteria{Kind: CriteriaImpact, Target: 10, Metric: "trees_planted"}, true},
		{"impact unknown metric", BadgeCriteria{Kind: CriteriaImpact, Target: 1, Metric: "rivers_cleaned"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.criteria.Qualifies(snapshot)
			assert.NoError(t, err)
			assert.Equal(t, tt.qualifies, ok)
		})
	}

	t.Run("unknown kind is an error", func(t *testing.T) {
		ok, err := BadgeCriteria{Kind: "mystery", Target: 1}.Qualifies(snapshot)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

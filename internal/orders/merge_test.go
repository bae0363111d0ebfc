package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codedlook/storefront/internal/domain"
)

func TestMerge_UnionByID(t *testing.T) {
	local := []domain.Order{{ID: "A"}, {ID: "B"}}
	remote := []domain.Order{{ID: "B"}, {ID: "C"}}

	merged := Merge(local, remote)

	ids := make([]string, 0, len(merged))
	for _, o := range merged {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestMerge_LocalEntryWinsOnConflict(t *testing.T) {
	local := []domain.Order{{ID: "A", Total: 100}}
	remote := []domain.Order{{ID: "A", Total: 999}}

	merged := Merge(local, remote)

	assert.Len(t, merged, 1)
	assert.Equal(t, int64(100), merged[0].Total)
}

func TestMerge_EmptySides(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))

	remoteOnly := Merge(nil, []domain.Order{{ID: "X"}})
	assert.Len(t, remoteOnly, 1)

	localOnly := Merge([]domain.Order{{ID: "Y"}}, nil)
	assert.Len(t, localOnly, 1)
}

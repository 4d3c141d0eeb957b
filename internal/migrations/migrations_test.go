package migrations

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/mkoziy/mgnrega/dashboard/internal/database"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrationsSeedsDistricts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, RunMigrations(ctx, db, nil))

	count, err := db.NewSelect().Model((*models.District)(nil)).Where("state_code = ?", "27").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33, count)

	pune := new(models.District)
	require.NoError(t, db.NewSelect().Model(pune).Where("district_code = ?", "521").Scan(ctx))
	assert.Equal(t, "Pune", pune.DistrictName)
	assert.Equal(t, models.DistrictID("27", "521"), pune.ID)
	require.NotNil(t, pune.DistrictNameHi)
	assert.Equal(t, "पुणे", *pune.DistrictNameHi)

	// A second run is a no-op.
	require.NoError(t, RunMigrations(ctx, db, nil))
	count, err = db.NewSelect().Model((*models.District)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33, count)
}

func TestSeedDistricts(t *testing.T) {
	districts, err := SeedDistricts(districtsYAML)
	require.NoError(t, err)
	require.NotEmpty(t, districts)

	seen := make(map[string]bool)
	for _, d := range districts {
		assert.Equal(t, "27", d.StateCode)
		assert.Equal(t, "Maharashtra", d.StateName)
		assert.False(t, seen[d.DistrictCode], "duplicate district code %s", d.DistrictCode)
		seen[d.DistrictCode] = true
	}
}

func TestSeedDistrictsRejectsInvalid(t *testing.T) {
	_, err := SeedDistricts([]byte("districts:\n  - {code: \"1\", name: X}\n"))
	assert.Error(t, err)

	_, err = SeedDistricts([]byte("state_code: \"27\"\ndistricts:\n  - {code: \"\", name: X}\n"))
	assert.Error(t, err)

	_, err = SeedDistricts([]byte("state_code: [\n"))
	assert.Error(t, err)
}

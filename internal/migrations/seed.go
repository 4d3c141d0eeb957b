package migrations

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

//go:embed districts.yaml
var districtsYAML []byte

type districtSeed struct {
	StateCode string `yaml:"state_code"`
	StateName string `yaml:"state_name"`
	Districts []struct {
		Code   string `yaml:"code"`
		Name   string `yaml:"name"`
		NameHi string `yaml:"name_hi"`
	} `yaml:"districts"`
}

// SeedDistricts parses a district seed document into models with
// deterministic ids.
func SeedDistricts(data []byte) ([]*models.District, error) {
	var seed districtSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse district seed: %w", err)
	}
	if seed.StateCode == "" {
		return nil, fmt.Errorf("district seed: state_code is required")
	}

	out := make([]*models.District, 0, len(seed.Districts))
	for _, d := range seed.Districts {
		if d.Code == "" || d.Name == "" {
			return nil, fmt.Errorf("district seed: code and name are required (got %q/%q)", d.Code, d.Name)
		}
		district := &models.District{
			ID:           models.DistrictID(seed.StateCode, d.Code),
			StateCode:    seed.StateCode,
			StateName:    seed.StateName,
			DistrictCode: d.Code,
			DistrictName: d.Name,
		}
		if d.NameHi != "" {
			nameHi := d.NameHi
			district.DistrictNameHi = &nameHi
		}
		out = append(out, district)
	}
	return out, nil
}

func insertDistricts(ctx context.Context, db bun.IDB, districts []*models.District) error {
	if len(districts) == 0 {
		return nil
	}
	_, err := db.NewInsert().
		Model(&districts).
		On("CONFLICT (state_code, district_code) DO NOTHING").
		Exec(ctx)
	return err
}

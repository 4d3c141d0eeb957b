package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// districtNamespace scopes deterministic district ids.
var districtNamespace = uuid.MustParse("0d6a5f0e-2b1c-4d6e-9a53-3f0c7e1b8a42")

// District is read-only reference data for an administrative district.
type District struct {
	bun.BaseModel `bun:"table:districts,alias:d"`

	ID             string    `bun:"id,pk" json:"id"`
	StateCode      string    `bun:"state_code,notnull,unique:districts_state_district" json:"state_code"`
	StateName      string    `bun:"state_name,notnull" json:"state_name"`
	DistrictCode   string    `bun:"district_code,notnull,unique:districts_state_district" json:"district_code"`
	DistrictName   string    `bun:"district_name,notnull" json:"district_name"`
	DistrictNameHi *string   `bun:"district_name_hi" json:"district_name_hi,omitempty"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// DistrictID derives the stable id of a district from its codes.
func DistrictID(stateCode, districtCode string) string {
	return uuid.NewSHA1(districtNamespace, []byte(stateCode+"/"+districtCode)).String()
}

// Name returns the district name in the requested language, falling back to
// English when no Hindi name is recorded.
func (d *District) Name(lang string) string {
	if lang == "hi" && d.DistrictNameHi != nil && *d.DistrictNameHi != "" {
		return *d.DistrictNameHi
	}
	return d.DistrictName
}

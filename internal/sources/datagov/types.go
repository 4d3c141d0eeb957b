package datagov

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Response is the envelope returned by the data.gov.in resource API.
type Response struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Total   FlexInt  `json:"total"`
	Count   FlexInt  `json:"count"`
	Records []Record `json:"records"`
}

// Record is one district-month row of MGNREGA figures. Every field is
// optional; absent figures map to zero.
type Record struct {
	StateCode                   string    `json:"stateCode"`
	DistrictCode                string    `json:"districtCode"`
	DistrictName                string    `json:"districtName"`
	FinancialYear               string    `json:"financialYear"`
	Month                       string    `json:"month"`
	PersonDaysGenerated         FlexInt   `json:"personDaysGenerated"`
	HouseholdsProvided          FlexInt   `json:"householdsProvided"`
	WomenPersondays             FlexInt   `json:"womenPersondays"`
	SCPersondays                FlexInt   `json:"scPersondays"`
	STPersondays                FlexInt   `json:"stPersondays"`
	OngoingWorks                FlexInt   `json:"ongoingWorks"`
	CompletedWorks              FlexInt   `json:"completedWorks"`
	TotalExpenditure            FlexFloat `json:"totalExpenditure"`
	WageExpenditure             FlexFloat `json:"wageExpenditure"`
	MaterialExpenditure         FlexFloat `json:"materialExpenditure"`
	AverageWagePerDay           FlexFloat `json:"averageWagePerDay"`
	TotalBudget                 FlexFloat `json:"totalBudget"`
	BudgetUtilizationPercentage FlexFloat `json:"budgetUtilizationPercentage"`
}

// FlexInt decodes JSON numbers and numeric strings such as "1,20,000".
// Null, empty and "NA" decode to zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s, err := numericText(data)
	if err != nil || s == "" {
		*f = 0
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode integer %q: %w", s, err)
	}
	*f = FlexInt(v)
	return nil
}

// FlexFloat is the floating-point counterpart of FlexInt.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s, err := numericText(data)
	if err != nil || s == "" {
		*f = 0
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode number %q: %w", s, err)
	}
	*f = FlexFloat(v)
	return nil
}

func numericText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if strings.EqualFold(s, "na") || s == "-" {
		return "", nil
	}
	return s, nil
}

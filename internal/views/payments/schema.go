package payments

import (
	"fmt"
	"net/url"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

const (
	FieldType      = "type"
	FieldStartDate = "startDate"
	FieldEndDate   = "endDate"
	FieldAccountID = "accountId"
	FieldUserID    = "userId"
)

// Schema returns the payments fields; every field starts empty.
func Schema(url.Values) filterview.Schema {
	return filterview.Schema{
		Fields: []filterview.Field{
			{Name: FieldType, Kind: filterview.KindString, Options: Types},
			{Name: FieldStartDate, Kind: filterview.KindDate},
			{Name: FieldEndDate, Kind: filterview.KindDate},
			{Name: FieldAccountID, Kind: filterview.KindInt, Rule: "gt=0"},
			{Name: FieldUserID, Kind: filterview.KindInt, Rule: "gt=0"},
		},
		Check: func(v filterview.Values) error {
			start, okStart := v.Date(FieldStartDate)
			end, okEnd := v.Date(FieldEndDate)
			if okStart && okEnd && start.After(end) {
				return fmt.Errorf("%s must not be after %s", FieldStartDate, FieldEndDate)
			}
			return nil
		},
	}
}

// FilterFromValues maps a filter snapshot onto a repository filter.
func FilterFromValues(v filterview.Values, limit int) Filter {
	f := Filter{Limit: limit}
	if typ, ok := v.String(FieldType); ok {
		f.Type = typ
	}
	if d, ok := v.Date(FieldStartDate); ok {
		f.StartDate = &d
	}
	if d, ok := v.Date(FieldEndDate); ok {
		f.EndDate = &d
	}
	if id, ok := v.Int(FieldAccountID); ok {
		f.AccountID = &id
	}
	if id, ok := v.Int(FieldUserID); ok {
		f.UserID = &id
	}
	return f
}

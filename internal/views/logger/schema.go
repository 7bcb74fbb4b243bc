package logger

import (
	"fmt"
	"net/url"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

const (
	FieldAccountID       = "accountId"
	FieldNeedToFix       = "needToFix"
	FieldLevel           = "level"
	FieldTitle           = "title"
	FieldCreatedDateFrom = "createdDateFrom"
	FieldCreatedDateTo   = "createdDateTo"
)

// Schema returns the logger fields; every field starts empty.
func Schema(url.Values) filterview.Schema {
	return filterview.Schema{
		Fields: []filterview.Field{
			{Name: FieldAccountID, Kind: filterview.KindInt, Rule: "gt=0"},
			{Name: FieldNeedToFix, Kind: filterview.KindBool},
			{Name: FieldLevel, Kind: filterview.KindStrings, Options: Levels},
			{Name: FieldTitle, Kind: filterview.KindString, Rule: "max=200"},
			{Name: FieldCreatedDateFrom, Kind: filterview.KindDate},
			{Name: FieldCreatedDateTo, Kind: filterview.KindDate},
		},
		Check: func(v filterview.Values) error {
			from, okFrom := v.Date(FieldCreatedDateFrom)
			to, okTo := v.Date(FieldCreatedDateTo)
			if okFrom && okTo && from.After(to) {
				return fmt.Errorf("%s must not be after %s", FieldCreatedDateFrom, FieldCreatedDateTo)
			}
			return nil
		},
	}
}

// FilterFromValues maps a filter snapshot onto a repository filter.
func FilterFromValues(v filterview.Values, limit int) Filter {
	f := Filter{Levels: v.Strings(FieldLevel), Limit: limit}
	if id, ok := v.Int(FieldAccountID); ok {
		f.AccountID = &id
	}
	if b, ok := v.Bool(FieldNeedToFix); ok {
		f.NeedToFix = &b
	}
	if title, ok := v.String(FieldTitle); ok {
		f.Title = title
	}
	if d, ok := v.Date(FieldCreatedDateFrom); ok {
		f.CreatedFrom = &d
	}
	if d, ok := v.Date(FieldCreatedDateTo); ok {
		f.CreatedTo = &d
	}
	return f
}

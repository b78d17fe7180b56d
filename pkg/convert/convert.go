// Copyright 2025 NetApp, Inc. All Rights Reserved.

package convert

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/netapp/nfs-imagecache/config"
	. "github.com/netapp/nfs-imagecache/logging"
)

// ToPtr converts any value into a pointer to that value.
func ToPtr[T any](v T) *T {
	return &v
}

// PtrToString converts any value into its string representation, or nil
func PtrToString[T any](v *T) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", *v)
}

// ToStringRedacted stringifies the fields of the struct structPointer points to, replacing the values of the fields
// named in redactList.  Empty redacted fields stay empty so a missing secret remains visible.
func ToStringRedacted(structPointer any, redactList []string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			Logc(context.Background()).Errorf("Panic in convert#ToStringRedacted; err: %v", r)
			out = "<panic>"
		}
	}()

	elements := reflect.ValueOf(structPointer).Elem()

	var output strings.Builder
	for i := 0; i < elements.NumField(); i++ {
		fieldName := elements.Type().Field(i).Name
		if !elements.Type().Field(i).IsExported() {
			continue
		}
		if output.Len() > 0 {
			output.WriteString(" ")
		}
		switch {
		case slices.Contains(redactList, fieldName) && !elements.Field(i).IsZero():
			output.WriteString(fmt.Sprintf("%v:%v", fieldName, config.REDACTED))
		default:
			output.WriteString(fmt.Sprintf("%v:%#v", fieldName, elements.Field(i).Interface()))
		}
	}

	out = output.String()
	return
}

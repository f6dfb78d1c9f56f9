package ui

import (
	"fmt"

	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// PrintStackDetails prints one stack record
func PrintStackDetails(st *pkgtypes.Stack) {
	details := [][2]string{
		{"Name:", st.Name},
		{"Status:", st.Status},
		{"Timeout:", st.Timeout.String()},
		{"Updated:", st.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	if st.StatusReason != "" {
		details = append(details, [2]string{"Reason:", st.StatusReason})
	}
	fmt.Print(RenderDetails("Stack Details", details))
}

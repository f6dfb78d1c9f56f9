package ui

import (
	"fmt"
	"strings"

	"github.com/vietdv277/stratus/internal/engine"
)

// PrintBatchPlan prints the batch sequence of a planned rolling update
func PrintBatchPlan(plan engine.BatchPlan) {
	if len(plan.Batches) == 0 {
		fmt.Println("  nothing to do")
		return
	}

	headers := []string{"Batch", "Mode", "Create", "Delete", "Members", "Pause After"}

	var rows [][]Cell
	for i, b := range plan.Batches {
		mode := "replace"
		if b.InPlace {
			mode = "resize"
		}

		pause := "-"
		if b.PauseAfter > 0 {
			pause = engine.FormatDuration(b.PauseAfter)
		}

		rows = append(rows, []Cell{
			{Text: fmt.Sprintf("%d", i+1), Style: IDStyle},
			{Text: mode, Style: ValueStyle},
			{Text: fmt.Sprintf("%d", b.CreateCount), Style: HealthyStyle},
			{Text: fmt.Sprintf("%d", b.DeleteCount), Style: FailedStyle},
			{Text: formatMembers(b.Members), Style: MutedStyle},
			{Text: pause, Style: WorkingStyle},
		})
	}

	fmt.Print(RenderTable(headers, rows))

	creates, deletes := plan.Counts()
	fmt.Printf("  %d batches, %d creates, %d deletes, %s pause overhead\n",
		len(plan.Batches), creates, deletes, engine.FormatDuration(plan.PauseTotal()))
}

func formatMembers(members []string) string {
	if len(members) == 0 {
		return "-"
	}
	if len(members) > 3 {
		return strings.Join(members[:3], ", ") + fmt.Sprintf(" +%d", len(members)-3)
	}
	return strings.Join(members, ", ")
}

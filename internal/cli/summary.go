package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/apps/nutrition"
	"github.com/google/uuid"
)

type SummaryCmd struct {
	User string `required:"" help:"User id."`
	From string `help:"First date (YYYY-MM-DD). Defaults to today."`
	To   string `help:"Last date (YYYY-MM-DD). Defaults to --from."`
}

func (c *SummaryCmd) Run(ctx *Context, out io.Writer) error {
	userID, err := uuid.Parse(c.User)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	loc := ctx.Config.Location()
	from := c.From
	if from == "" {
		from = time.Now().In(loc).Format(nutrition.DateLayout)
	}
	to := c.To
	if to == "" {
		to = from
	}

	db, err := ctx.DB()
	if err != nil {
		return err
	}

	days, err := nutrition.NewSummaryService(db, loc).Range(context.Background(), userID, from, to)
	if err != nil {
		return err
	}

	if len(days) == 0 {
		fmt.Fprintf(out, "No entries between %s and %s\n", from, to)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMEALS\tKCAL\tPROTEIN\tCARBS\tFAT")
	for _, d := range days {
		v := nutrition.Dashboard(d)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", v.Date, v.Meals, v.Calories, v.Protein, v.Carbs, v.Fat)
	}
	return w.Flush()
}

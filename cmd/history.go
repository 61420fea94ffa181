package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/urfave/cli/v2"

	"github.com/anicoll/telemetry-integration/internal/pkg/database"
	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// historyReader is the slice of the database the history subcommand needs.
type historyReader interface {
	GetValues(ctx context.Context, identifier, slug string, from, to *time.Time) (model.ValueRecords, error)
	GetLatestValues(ctx context.Context) (model.ValueRecords, error)
}

// HistoryCommand prints recorded telemetry values from the history sink:
// the latest record per variable by default, or the value history for one
// identifier/slug pair when both are given.
func HistoryCommand(ctx *cli.Context) error {
	conn, err := pgx.Connect(ctx.Context, ctx.String("database-url"))
	if err != nil {
		return err
	}
	db := database.NewDatabase(ctx.Context, conn)
	defer db.Close()

	return history(ctx.Context, db, os.Stdout, ctx.String("identifier"), ctx.String("slug"), ctx.Duration("since"))
}

func history(ctx context.Context, db historyReader, w io.Writer, identifier, slug string, since time.Duration) error {
	var records model.ValueRecords
	var err error

	if identifier == "" || slug == "" {
		records, err = db.GetLatestValues(ctx)
	} else {
		var from, to *time.Time
		if since > 0 {
			f := time.Now().Add(-since)
			t := time.Now()
			from, to = &f, &t
		}
		records, err = db.GetValues(ctx, identifier, slug, from, to)
	}
	if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s/%s\t%s\n",
			record.TimeStamp.Format(time.RFC3339), record.Identifier, record.Slug, record.Value)
	}
	return nil
}

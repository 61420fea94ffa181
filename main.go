package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/telemetry-integration/cmd"
)

func main() {
	app := &cli.App{
		Name:   "telemetry-monitor",
		Usage:  "live telemetry monitor for sensors and devices",
		Action: cmd.MonitorCommand,
		Commands: []*cli.Command{
			{
				Name:   "history",
				Usage:  "print recorded telemetry values from the history database",
				Action: cmd.HistoryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						EnvVars:  []string{"DATABASE_URL"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "identifier",
						Usage: "entity identifier to filter on, requires --slug",
					},
					&cli.StringFlag{
						Name:  "slug",
						Usage: "variable slug to filter on, requires --identifier",
					},
					&cli.DurationFlag{
						Name:  "since",
						Usage: "how far back to read when filtering, e.g. 24h",
					},
				},
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				EnvVars: []string{"TELEMETRY_SERVER_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "auth-token",
				EnvVars: []string{"TELEMETRY_AUTH_TOKEN"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:     "watchlist",
				EnvVars:  []string{"WATCHLIST"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "database-url",
				EnvVars: []string{"DATABASE_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "migrations-folder",
				EnvVars: []string{"MIGRATIONS_FOLDER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				EnvVars: []string{"METRICS_ADDR"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/chzyer/readline"

	"github.com/BaukJ/databricks-sql-python/client"
	"github.com/BaukJ/databricks-sql-python/conf"
	"github.com/BaukJ/databricks-sql-python/log"
)

var arguments struct {
	DSN          string      `help:"Data source name: token:[my_token]@[hostname]:[port]/[http_path]?param=value. Overrides the individual connection flags."`
	Conn         conf.Config `embed:""`
	VI           bool        `help:"Enable VI mode."`
	MaxLineWidth int         `help:"Max width of rendered result lines." default:"120"`
	Log          log.Config  `embed:"" prefix:"log-"`
}

func main() {
	kctx := kong.Parse(&arguments)
	err := arguments.Log.Configure()
	kctx.FatalIfErrorf(err)

	cfg := &arguments.Conn
	if arguments.DSN != "" {
		cfg, err = conf.ParseDSN(arguments.DSN)
		kctx.FatalIfErrorf(err)
	}
	cfg.ApplyDefaults()

	conn, err := client.Connect(cfg)
	kctx.FatalIfErrorf(err)
	defer func() {
		if err := conn.Close(); err != nil {
			// Ignore
		}
	}()

	home, err := os.UserHomeDir()
	kctx.FatalIfErrorf(err)

	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:            filepath.Join(home, ".dbsql.history"),
		DisableAutoSaveHistory: true,
		VimMode:                arguments.VI,
	})
	kctx.FatalIfErrorf(err)
	for {
		// Gather multi-line statement terminated by a ;
		rl.SetPrompt("dbsql> ")
		cmd := []string{}
		eof := false
		for {
			line, err := rl.Readline()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				if err.Error() == "Interrupt" {
					// This occurs when CTRL-C is pressed - we should exit silently
					eof = true
					break
				}
				kctx.FatalIfErrorf(err)
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			cmd = append(cmd, line)
			if strings.HasSuffix(line, ";") {
				break
			}
			rl.SetPrompt("       ")
		}
		if eof {
			break
		}
		statement := strings.Join(cmd, " ")
		_ = rl.SaveHistory(statement)

		if err := sendStatement(statement, conn); err != nil {
			kctx.Errorf("%s", err)
		}
	}
}

func sendStatement(statement string, conn *client.Connection) error {
	statement = strings.TrimSuffix(statement, ";")
	return conn.WithCursor(func(cursor *client.Cursor) error {
		if err := cursor.Execute(statement); err != nil {
			return err
		}
		rows, err := cursor.FetchAll()
		if err != nil {
			return err
		}
		schema, err := cursor.Schema()
		if err != nil {
			return err
		}
		for _, line := range renderTable(schema, rows, arguments.MaxLineWidth) {
			fmt.Println(line)
		}
		fmt.Printf("%d rows returned\n", len(rows))
		return nil
	})
}

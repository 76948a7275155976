package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Aiclear/ait-rredis-cli/pkg/client"
	"github.com/Aiclear/ait-rredis-cli/pkg/common"
	"github.com/Aiclear/ait-rredis-cli/pkg/introspect"
	"github.com/Aiclear/ait-rredis-cli/pkg/stats"
)

var (
	logger    = common.InitLogger().WithName("main")
	clientCfg common.ClientConfig
)

func main() {
	kctx := kong.Parse(&clientCfg,
		kong.Name("rredis-cli"),
		kong.Description("An interactive RESP2/RESP3 command line client."))
	if err := clientCfg.Validate(); err != nil {
		kctx.FatalIfErrorf(err)
	}

	hello := client.NoAuth().WithClientName(clientCfg.ClientName)
	if clientCfg.Auth.Password != "" {
		hello = client.WithPassword(clientCfg.Auth.Username, clientCfg.Auth.Password).
			WithClientName(clientCfg.ClientName)
	}

	conn, err := client.DialWithRetry(context.Background(), &clientCfg, hello)
	if err != nil {
		logger.Error(err, "Failed to connect", "Addr", clientCfg.Addr())
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("Connected successfully!")
	fmt.Println(conn.Greeting())

	var collector stats.Collector
	if clientCfg.Stats.EnableStats {
		collector, err = stats.NewCollector(stats.DefaultConfig())
		if err != nil {
			logger.Error(err, "Stats collector unavailable, continuing without")
		} else {
			conn.SetCollector(collector)
		}
	}

	// Doc hints and key-space refresh run on their own connection: the
	// interactive one cannot be shared, RESP replies carry no request ids.
	cache := introspect.NewDocCache(clientCfg.Introspect.KeysRefreshTime)
	if clientCfg.Introspect.EnableDocs {
		refresher, rErr := introspect.StartRefresher(context.Background(), &clientCfg, hello, cache)
		if rErr != nil {
			logger.V(1).Info("Introspection unavailable", "error", rErr)
		} else {
			defer refresher.Stop()
		}
	}

	repl(conn, cache, collector)
}

func repl(conn *client.Conn, cache *introspect.DocCache, collector stats.Collector) {
	history := &commandHistory{}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("^D")
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			return
		}
		if isHistoryCommand(line) {
			fmt.Println(history.display())
			history.add(line)
			continue
		}
		if isStatsCommand(line) {
			if collector != nil {
				fmt.Println(collector.Summary())
			} else {
				fmt.Println("stats collection is disabled")
			}
			history.add(line)
			continue
		}
		if isInfoCommand(line) {
			history.add(line)
			reply, err := conn.Send("INFO")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				if !conn.Connected() {
					return
				}
				continue
			}
			fmt.Println(introspect.ParseInfo(reply))
			continue
		}

		history.add(line)
		printHint(cache, line)

		reply, err := conn.Send(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if !conn.Connected() {
				fmt.Fprintln(os.Stderr, "Connection lost; restart to reconnect.")
				return
			}
			continue
		}
		fmt.Println(reply)
	}
}

func printHint(cache *introspect.DocCache, line string) {
	name, _, _ := strings.Cut(line, " ")
	if doc, ok := cache.Lookup(name); ok {
		fmt.Printf("= %s\n", doc.Hint())
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"aladdin/pkg/aladdin"
)

const version = "0.1.0"

func main() {
	server := flag.String("server", envOr("ALADDIN_SERVER", "http://localhost:8000"), "aladdin-server base URL")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: aladdin-cli [-server URL] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version              Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  status               Show server health and broker mode\n")
		fmt.Fprintf(os.Stderr, "  profile              Show the account profile\n")
		fmt.Fprintf(os.Stderr, "  positions            List valued positions\n")
		fmt.Fprintf(os.Stderr, "  prices SYM[,SYM...]  Resolve prices for symbols\n")
		fmt.Fprintf(os.Stderr, "  buy SYM QTY          Submit a market buy\n")
		fmt.Fprintf(os.Stderr, "  sell SYM QTY         Submit a market sell\n")
		fmt.Fprintf(os.Stderr, "  log [N]              Show the last N trade-log lines (default 20)\n")
		fmt.Fprintf(os.Stderr, "  brief                Show the advisory market brief\n")
		fmt.Fprintf(os.Stderr, "\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := aladdin.NewClient(*server)
	if err := run(ctx, client, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *aladdin.Client, args []string) error {
	switch args[0] {
	case "version":
		fmt.Printf("aladdin-cli %s\n", version)
		return nil

	case "status":
		h, err := client.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("server: %s, broker mode: %s\n", h.Status, h.Mode)
		return nil

	case "profile":
		p, err := client.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("nickname:    %s\n", p.Nickname)
		fmt.Printf("capital:     %s\n", fmtOpt(p.Capital))
		fmt.Printf("open trades: %d\n", p.OpenTrades)
		fmt.Printf("p&l today:   %s\n", fmtOpt(p.PLToday))
		return nil

	case "positions":
		positions, err := client.Positions(ctx)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			fmt.Println("no open positions")
			return nil
		}
		symbols := make([]string, 0, len(positions))
		for sym := range positions {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		fmt.Printf("%-8s %8s %10s %10s %12s %10s\n", "SYMBOL", "QTY", "AVG", "PRICE", "VALUE", "P&L")
		for _, sym := range symbols {
			p := positions[sym]
			fmt.Printf("%-8s %8d %10.2f %10s %12s %10s\n",
				sym, p.Qty, p.AvgCost, fmtOpt(p.Price), fmtOpt(p.Value), fmtOpt(p.PL))
		}
		return nil

	case "prices":
		if len(args) < 2 {
			return fmt.Errorf("prices needs a symbol list")
		}
		prices, err := client.Prices(ctx, strings.Split(args[1], ","))
		if err != nil {
			return err
		}
		symbols := make([]string, 0, len(prices))
		for sym := range prices {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			fmt.Printf("%-8s %s\n", sym, fmtOpt(prices[sym]))
		}
		return nil

	case "buy", "sell":
		if len(args) < 3 {
			return fmt.Errorf("%s needs a symbol and quantity", args[0])
		}
		qty, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad quantity %q", args[2])
		}
		submit := client.Buy
		if args[0] == "sell" {
			submit = client.Sell
		}
		id, err := submit(ctx, args[1], qty)
		if err != nil {
			return err
		}
		fmt.Printf("order %s\n", id)
		return nil

	case "log":
		limit := 20
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				limit = n
			}
		}
		log, err := client.Log(ctx, limit)
		if err != nil {
			return err
		}
		if log == "" {
			fmt.Println("log is empty")
			return nil
		}
		fmt.Println(log)
		return nil

	case "brief":
		s, err := client.HourlySummary(ctx)
		if err != nil {
			return err
		}
		fmt.Println(s.Summary)
		if s.GeneratedAt != "" {
			fmt.Printf("(generated %s)\n", s.GeneratedAt)
		}
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Standalone stream client for watching a running server.
//
// Usage:
//
//	go run ./cmd/starfield serve
//
// Then in another terminal:
//
//	go run ./example/cmd/stargazer -viewport=-0.5,0.5,-0.5,0.5
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
)

type star struct {
	ID      int64   `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Message string  `json:"message"`
}

type starUpdate struct {
	Event string `json:"event"`
	Star  star   `json:"star"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8000", "server base URL")
	viewport := flag.String("viewport", "-1,1,-1,1", "xMin,xMax,yMin,yMax")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, *addr, *viewport); err != nil && ctx.Err() == nil {
		slog.Error("stream failed", "error", err)
		os.Exit(1)
	}
}

func watch(ctx context.Context, addr, viewport string) error {
	u := addr + "/stars/stream?viewport=" + url.QueryEscape(viewport)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	fmt.Printf("watching %s\n", viewport)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == ":":
			fmt.Println("  (keep-alive)")
		case strings.HasPrefix(line, "data: "):
			var upd starUpdate
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &upd); err != nil {
				slog.Warn("bad event", "error", err)
				continue
			}
			fmt.Printf("  %-6s #%-5d (%+.3f, %+.3f) %s\n",
				upd.Event, upd.Star.ID, upd.Star.X, upd.Star.Y, upd.Star.Message)
		}
	}
	return scanner.Err()
}

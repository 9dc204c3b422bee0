// Headless chat client: connects to the realtime endpoint, tracks the
// presence roster and keeps durable unread/read state the same way the UI
// client does.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"

	"convo/internal/client"
	"convo/internal/config"
	"convo/internal/core/domain"
	redisPlugin "convo/internal/plugins/redis"
)

func main() {
	var (
		serverURL = flag.String("server", "ws://localhost:8080/ws", "websocket endpoint")
		userID    = flag.String("user", "", "stable user id")
		redisURL  = flag.String("redis", "redis://localhost:6379", "state storage")
	)
	flag.Parse()
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	cfg.Redis.URL = *redisURL
	rdb, err := redisPlugin.NewRedisClient(ctx, *cfg.Redis)
	if err != nil {
		fmt.Fprintln(os.Stderr, "redis connection failed:", err)
		os.Exit(1)
	}
	defer rdb.Close()

	state, err := client.NewStateMachine(ctx, redisPlugin.NewStateKV(rdb, "convo-client"), *userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load state:", err)
		os.Exit(1)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *serverURL+"?userId="+*userID, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("connected as", *userID)

	go readCommands(ctx, conn, state)

	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			fmt.Fprintln(os.Stderr, "connection closed:", err)
			return
		}
		switch env.Event {
		case domain.EventOnlineUsers:
			var roster []string
			if json.Unmarshal(env.Data, &roster) == nil {
				fmt.Println("online:", strings.Join(roster, ", "))
			}
		case domain.EventNewMessage, domain.EventNewGroupMessage:
			var msg domain.MessagePayload
			if json.Unmarshal(env.Data, &msg) != nil {
				continue
			}
			state.OnMessage(ctx, msg)
			key := msg.ConversationKey()
			if key == state.Active() {
				fmt.Printf("[%s] %s: %s\n", key, msg.SenderID, msg.Text)
			} else {
				fmt.Printf("(%d unread in %s)\n", state.Unread(key), key)
			}
		}
	}
}

// readCommands handles "/select <key>" and "/join <groupId>" from stdin.
func readCommands(ctx context.Context, conn *websocket.Conn, state *client.StateMachine) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		switch fields[0] {
		case "/select":
			state.Select(ctx, fields[1])
			fmt.Println("selected", fields[1], "- unread reset")
		case "/join":
			data, _ := json.Marshal(fields[1])
			env := domain.Envelope{Event: domain.EventJoinGroup, Data: data}
			if err := conn.WriteJSON(env); err != nil {
				fmt.Fprintln(os.Stderr, "join failed:", err)
			}
		}
	}
}

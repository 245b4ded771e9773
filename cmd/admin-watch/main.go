package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/edufeedback/backend/internal/client"
	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/logger"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()

	home, _ := os.UserHomeDir()
	server := flag.String("server", "http://localhost:"+cfg.ServerPort, "portal base URL")
	statePath := flag.String("state", filepath.Join(home, ".edufeedback", "storage.json"), "file holding the saved login")
	logout := flag.Bool("logout", false, "end the saved session and exit")
	flag.Parse()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewHTTPAPI(*server, nil)
	ctrl := client.NewController(api, client.NewFileStore(*statePath), nil, log)
	ctrl.OnRender(newRenderer())
	ctrl.Start(ctx)

	if *logout {
		_ = ctrl.Dispatch(ctx, client.Logout{})
		return
	}

	if ctrl.State().View == client.ViewAuth {
		email, password, err := prompt()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read credentials")
		}
		if err := ctrl.Dispatch(ctx, client.SubmitAuth{Email: email, Password: password}); err != nil {
			os.Exit(1)
		}
	}

	if ctrl.State().View != client.ViewAdmin {
		fmt.Println("Error: admin account required")
		os.Exit(1)
	}

	log.Info().Str("server", *server).Msg("Watching for changes")
	if err := client.Watch(ctx, api, ctrl); err != nil {
		log.Fatal().Err(err).Msg("Change stream closed")
	}
}

func prompt() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Admin Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(email), string(pw), nil
}

// newRenderer prints each new notification once, then the admin list sizes.
func newRenderer() func(client.State) {
	var last client.Notification
	return func(s client.State) {
		if n := s.Notification; n != nil && *n != last {
			last = *n
			if n.Error {
				fmt.Printf("[error] %s\n", n.Message)
			} else {
				fmt.Printf("[ok] %s\n", n.Message)
			}
		}
		if s.View != client.ViewAdmin {
			return
		}
		fmt.Printf("%s: %d feedback, %d users\n", s.HeaderLabel(), len(s.AllFeedback), len(s.Users))
	}
}

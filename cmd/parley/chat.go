package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	input "github.com/tcnksm/go-input"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/events"
	"github.com/go-go-golems/parley/pkg/session"
)

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Hold a conversation with the assistant",
		Long: `Starts an interactive chat. Type /end to finish the conversation and
get its summary, or /quit to leave it open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			manager, cleanup, err := buildManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var s *session.Session
			if idStr := viper.GetString("conversation-id"); idStr != "" {
				id, err := uuid.Parse(idStr)
				if err != nil {
					return err
				}
				s, err = manager.Resume(ctx, id)
				if err != nil {
					return err
				}
				for _, m := range s.Conversation().Messages {
					fmt.Println(m.View())
				}
			} else {
				s, err = manager.Open(ctx, viper.GetString("title"))
				if err != nil {
					return err
				}
				fmt.Printf("Started conversation %s\n", s.Conversation().ID)
			}

			return chatLoop(ctx, s)
		},
	}

	cmd.Flags().String("title", "", "Title for the new conversation")
	cmd.Flags().String("conversation-id", "", "Resume an existing conversation")

	return cmd
}

func chatLoop(ctx context.Context, s *session.Session) error {
	ui := &input.UI{
		Writer: os.Stdout,
		Reader: os.Stdin,
	}

	for {
		line, err := ui.Ask("You", &input.Options{
			Required:    false,
			HideDefault: true,
			HideOrder:   true,
		})
		if err != nil {
			// EOF or interrupt, leave the conversation open.
			fmt.Println()
			return nil
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/end":
			ended, err := s.Finish(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("\nConversation ended.\n\n%s\n", ended.Summary)
			if len(ended.Tags) > 0 {
				fmt.Printf("\nTags: %s\n", strings.Join(ended.Tags, ", "))
			}
			return nil
		}

		// Pending indicator only, nothing is committed until the exchange
		// comes back as a whole.
		fmt.Println("assistant: …")

		exchange, err := s.Append(ctx, line)
		if err != nil {
			if conversation.IsValidation(err) {
				continue
			}
			log.Error().Err(err).Msg("exchange failed")
			fmt.Println("The assistant could not reply, your message was not sent. Try again.")
			continue
		}

		fmt.Println(exchange.AssistantMessage.View())
	}
}

// buildManager wires the backend and, when verbose, an event router logging
// lifecycle events.
func buildManager(ctx context.Context) (*session.Manager, func(), error) {
	b, err := buildBackend()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	options := []session.ManagerOption{}

	if viper.GetBool("verbose") {
		router, err := events.NewEventRouter()
		if err != nil {
			return nil, nil, err
		}

		router.AddHandler("log-lifecycle", events.TopicLifecycle,
			func(ctx context.Context, ev events.Event) error {
				log.Info().
					Str("event_type", string(ev.Type())).
					Interface("event", ev).
					Msg("lifecycle event")
				return nil
			})

		go func() {
			if err := router.Run(ctx); err != nil {
				log.Error().Err(err).Msg("event router stopped")
			}
		}()
		<-router.Running()

		options = append(options,
			session.WithPublisher(events.NewTopicPublisher(router.Publisher, events.TopicLifecycle)))
		cleanup = func() {
			_ = router.Close()
		}
	}

	return session.NewManager(b, options...), cleanup, nil
}

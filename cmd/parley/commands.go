package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List past and ongoing conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			manager, cleanup, err := buildManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			overviews, err := manager.List(ctx)
			if err != nil {
				return err
			}

			for _, o := range overviews {
				title := o.Title
				if title == "" {
					title = "Untitled"
				}
				line := fmt.Sprintf("%s  [%s]  %s  %s",
					o.ID, o.Status, o.StartedAt.Format("2006-01-02 15:04"), title)
				if len(o.Tags) > 0 {
					line += "  (" + strings.Join(o.Tags, ", ") + ")"
				}
				fmt.Println(line)
			}

			return nil
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Show a conversation's messages and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			manager, cleanup, err := buildManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := manager.Resume(ctx, id)
			if err != nil {
				return err
			}
			conv := s.Conversation()

			title := conv.Title
			if title == "" {
				title = "Untitled"
			}
			fmt.Printf("%s [%s]\n\n", title, conv.Status)

			for _, m := range conv.Messages {
				fmt.Println(m.View())
			}

			if conv.Ended() {
				fmt.Printf("\n--\n%s\n", conv.Summary)
				if len(conv.Tags) > 0 {
					fmt.Printf("\nTags: %s\n", strings.Join(conv.Tags, ", "))
				}
			}

			return nil
		},
	}
}

func newEndCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "end <conversation-id>",
		Short: "End a conversation and derive its summary and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			manager, cleanup, err := buildManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := manager.Resume(ctx, id)
			if err != nil {
				return err
			}

			ended, err := s.Finish(ctx)
			if err != nil {
				return err
			}

			fmt.Println(ended.Summary)
			if len(ended.Tags) > 0 {
				fmt.Printf("\nTags: %s\n", strings.Join(ended.Tags, ", "))
			}

			return nil
		},
	}
}

func newQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>...",
		Short: "Ask a question across all conversations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			manager, cleanup, err := buildManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := manager.Query(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(result.Answer)
			if len(result.Matches) > 0 {
				fmt.Println()
				for _, m := range result.Matches {
					fmt.Printf("%6.2f  [C%s]  %s\n", m.Score, m.ConversationID, m.Snippet)
				}
			}

			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <conversation-id>",
		Short: "Export a conversation as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			manager, cleanup, err := buildManager(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := manager.Resume(ctx, id)
			if err != nil {
				return err
			}

			b, err := yaml.Marshal(s.Conversation())
			if err != nil {
				return err
			}

			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Print(string(b))
				return nil
			}
			return os.WriteFile(out, b, 0644)
		},
	}

	cmd.Flags().String("out", "", "Write to a file instead of stdout")

	return cmd
}

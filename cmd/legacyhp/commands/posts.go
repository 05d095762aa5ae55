package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	bbs "github.com/tmaru-eng/legacy-homepage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the recent guestbook posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		posts, err := svc.Load(cmd.Context())
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Println("(no posts)")
			return nil
		}
		for _, p := range posts {
			fmt.Printf("#%s  %s  %s\n%s\n\n",
				p.ID, p.Name, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Content)
		}
		return nil
	},
}

var (
	postName      string
	postDeleteKey string
)

var postCmd = &cobra.Command{
	Use:   "post <message>",
	Short: "Write a new guestbook post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		if _, err := svc.Load(cmd.Context()); err != nil {
			return err
		}
		post, err := svc.AddPost(cmd.Context(), bbs.PostInput{
			Name:      postName,
			Content:   args[0],
			DeleteKey: postDeleteKey,
		})
		if err != nil {
			return err
		}
		fmt.Printf("posted #%s\n", post.ID)
		return nil
	},
}

var deleteKey string

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your posts using its delete key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		switch err := svc.DeletePost(cmd.Context(), args[0], deleteKey); err {
		case nil:
			fmt.Println(bbs.MsgPostDeleted)
			return nil
		case bbs.ErrPostNotFound:
			return fmt.Errorf("%s", bbs.MsgPostNotFound)
		case bbs.ErrWrongDeleteKey:
			return fmt.Errorf("%s", bbs.MsgWrongDeleteKey)
		case bbs.ErrMissingDeleteKey:
			return fmt.Errorf("%s", bbs.MsgMissingDeleteKey)
		default:
			return err
		}
	},
}

func init() {
	postCmd.Flags().StringVarP(&postName, "name", "n", "", "Display name (required)")
	postCmd.Flags().StringVarP(&postDeleteKey, "key", "k", "", "Delete key for removing the post later (required)")
	_ = postCmd.MarkFlagRequired("name")
	_ = postCmd.MarkFlagRequired("key")

	deleteCmd.Flags().StringVarP(&deleteKey, "key", "k", "", "Delete key chosen when posting (required)")
	_ = deleteCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(listCmd, postCmd, deleteCmd)
}

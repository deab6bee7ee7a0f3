package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/pkg/textutil"
	"github.com/devilmonastery/shopfeed/internal/pkg/urlutil"
)

func newPostsCommand() *cobra.Command {
	var (
		limit int
		tag   string
	)

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Show the feed",
		Long:  `Show the newest posts. Subcommands create and delete posts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			query := url.Values{}
			query.Set("limit", strconv.Itoa(limit))
			if tag != "" {
				query.Set("tag", textutil.NormalizeTag(tag))
			}

			resp, err := cli.Client.Get(cmd.Context(), api.PathPosts+"?"+query.Encode())
			if err != nil {
				return err
			}

			var posts []api.Post
			if err := resp.Decode(&posts); err != nil {
				return fmt.Errorf("failed to decode posts: %w", err)
			}
			return printMarkdown(cli, postsMarkdown(posts, cli.Context.Rendering.Timezone))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of posts to show")
	cmd.Flags().StringVar(&tag, "tag", "", "Only show posts with this #tag")

	cmd.AddCommand(newPostCreateCommand())
	cmd.AddCommand(newPostDeleteCommand())

	return cmd
}

func newPostCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create BODY...",
		Short: "Publish a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			resp, err := cli.Client.Post(cmd.Context(), api.PathPosts, api.CreatePostRequest{
				Body: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			var post api.Post
			if err := resp.Decode(&post); err != nil {
				return fmt.Errorf("failed to decode post: %w", err)
			}
			fmt.Printf("✓ Posted %s\n", post.ID)
			return nil
		},
	}
}

func newPostDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete POST_ID",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)
			if _, err := cli.Client.Delete(cmd.Context(), api.PathPosts+"/"+url.PathEscape(args[0])); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted %s\n", args[0])
			return nil
		},
	}
}

func newProductsCommand() *cobra.Command {
	var storeID string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List a store's products",
		Long:  `List the catalogue of a store. Defaults to the store of the signed-in account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			if storeID == "" {
				id, err := cli.Client.Credentials().StoreID(cmd.Context())
				if err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("no store for this session; pass --store")
				}
				storeID = id
			}

			resp, err := cli.Client.Get(cmd.Context(), urlutil.StoreProductsPath(storeID))
			if err != nil {
				return err
			}

			var products []api.Product
			if err := resp.Decode(&products); err != nil {
				return fmt.Errorf("failed to decode products: %w", err)
			}
			return printMarkdown(cli, productsMarkdown(storeID, products))
		},
	}

	cmd.Flags().StringVar(&storeID, "store", "", "Store id (default: the session's store)")

	return cmd
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/urfave/cli/v3"
)

func blogCommand() *cli.Command {
	return &cli.Command{
		Name:  "blog",
		Usage: "Plan and write blog posts",
		Commands: []*cli.Command{
			blogIdeasCommand(),
			blogPostCommand(),
		},
	}
}

func blogIdeasCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "ideas",
		Usage:     "Suggest blog post ideas for a topic",
		ArgsUsage: "<topic>",
		Flags:     withFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			topic := strings.Join(c.Args().Slice(), " ")
			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			ideas, err := withSpinner(ctx, "Generating blog ideas", func(ctx context.Context) ([]*model.BlogPostIdea, error) {
				return s.BlogIdeas(ctx, topic)
			})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(ideas))
			for _, idea := range ideas {
				rows = append(rows, []string{idea.Title, idea.Summary, strings.Join(idea.SEOKeywords, ", ")})
			}
			renderTable(c.Root().Writer, []string{"TITLE", "SUMMARY", "KEYWORDS"}, rows)
			return nil
		},
	}
}

func blogPostCommand() *cli.Command {
	var (
		cfg      config
		input    generate.BlogPostInput
		html     bool
		out      string
		imageOut string
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "Post title",
			Required:    true,
			Destination: &input.Title,
		},
		&cli.StringSliceFlag{
			Name:        "keywords",
			Aliases:     []string{"k"},
			Usage:       "SEO keywords",
			Destination: &input.Keywords,
		},
		&cli.StringFlag{
			Name:        "tone",
			Usage:       "Writing tone",
			Value:       "informative",
			Destination: &input.Tone,
		},
		&cli.BoolFlag{
			Name:        "html",
			Usage:       "Write a styled HTML document instead of markdown",
			Destination: &html,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Write the post to a file instead of stdout",
			Destination: &out,
		},
		&cli.StringFlag{
			Name:        "image-out",
			Usage:       "Also generate a featured image and write it here",
			Destination: &imageOut,
		},
	)

	return &cli.Command{
		Name:  "post",
		Usage: "Write a blog post",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			post, err := withSpinner(ctx, "Writing blog post", func(ctx context.Context) (string, error) {
				return s.BlogPost(ctx, input, html)
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if out == "" {
				fmt.Fprintln(w, post)
			} else {
				if err := os.WriteFile(out, []byte(post), 0o644); err != nil {
					return goerr.Wrap(err, "failed to write post", goerr.V("path", out))
				}
				fmt.Fprintf(w, "post saved to %s\n", out)
			}

			if imageOut != "" {
				img, err := withSpinner(ctx, "Generating featured image", func(ctx context.Context) (*model.Media, error) {
					return s.BlogImage(ctx, input)
				})
				if err != nil {
					return err
				}
				return writeMedia(w, imageOut, "featured image", img)
			}
			return nil
		},
	}
}

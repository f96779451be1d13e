package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/anonto42/nano-midea/client/internal/app"
	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/navigation"
	"github.com/anonto42/nano-midea/client/pkg/config"
)

const usage = `usage: feedclient <command> [flags]

commands:
  login     -u <username> -p <password>
  register  -name <name> -username <username> -email <email> -password <password>
  logout
  whoami
  feed
  post      -id <postId>
  like      -id <postId>
  comment   -id <postId> -text <content>
  follow    -id <userId>
  search    -q <keyword>
  profile   [-id <userId>]
  add-post  -image <url> -content <caption> [-tags a,b,c]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Load()
	stores, err := config.InitStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open credential vault: %v", err)
	}
	defer stores.Close()

	a := app.New(stores.Vault, client.NewHTTPTransport(cfg.APIURL, nil, cfg.RequestTimeout))
	defer a.Close()
	a.Start(ctx)

	if err := run(ctx, a, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// run executes one command against a started App.
func run(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)

	switch cmd {
	case "login":
		username := fs.String("u", "", "username")
		password := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := a.Login(ctx, *username, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Logged in as %s (%s)\n", res.Username, res.UserID)

	case "register":
		var in models.RegisterInput
		fs.StringVar(&in.Name, "name", "", "display name")
		fs.StringVar(&in.Username, "username", "", "username")
		fs.StringVar(&in.Email, "email", "", "email")
		fs.StringVar(&in.Password, "password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		msg, err := a.Register(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)

	case "logout":
		if err := a.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")

	case "whoami":
		s := a.Sessions.Read()
		if !s.Authenticated() {
			fmt.Fprintln(out, "Not logged in")
			return nil
		}
		fmt.Fprintf(out, "User %s\n", s.UserID)

	case "feed":
		_, res, err := a.Open(ctx, navigation.ScreenHome, nil)
		if err != nil {
			return err
		}
		posts, err := client.DecodeInto[[]models.Post](res)
		if err != nil {
			return err
		}
		for _, p := range posts {
			printPost(out, p, a.Sessions.Read().UserID)
		}

	case "post":
		id := fs.String("id", "", "post id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		_, res, err := a.Open(ctx, navigation.ScreenPostDetail, navigation.Params{"postId": *id})
		if err != nil {
			return err
		}
		if res == nil {
			return errs.Validation("post", "id is required")
		}
		p, err := client.DecodeInto[models.Post](res)
		if err != nil {
			return err
		}
		printPost(out, p, a.Sessions.Read().UserID)
		for _, c := range p.Comments {
			fmt.Fprintf(out, "    %s: %s\n", c.Username, c.Content)
		}

	case "like":
		id := fs.String("id", "", "post id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		liked, err := a.ToggleLike(ctx, *id)
		if err != nil {
			return err
		}
		if liked {
			fmt.Fprintln(out, "Liked")
		} else {
			fmt.Fprintln(out, "Unliked")
		}

	case "comment":
		id := fs.String("id", "", "post id")
		text := fs.String("text", "", "comment")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.Comment(ctx, *id, *text); err != nil {
			return err
		}
		fmt.Fprintln(out, "Comment posted")

	case "follow":
		id := fs.String("id", "", "user id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		following, err := a.Follow(ctx, *id)
		if err != nil {
			return err
		}
		if following {
			fmt.Fprintln(out, "Following")
		} else {
			fmt.Fprintln(out, "Unfollowed")
		}

	case "search":
		q := fs.String("q", "", "keyword")
		if err := fs.Parse(args); err != nil {
			return err
		}
		users, err := a.Search(ctx, *q)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Fprintf(out, "%s  @%s  %s\n", u.ID, u.Username, u.Name)
		}

	case "profile":
		id := fs.String("id", "", "user id, defaults to you")
		if err := fs.Parse(args); err != nil {
			return err
		}
		_, res, err := a.Open(ctx, navigation.ScreenProfile, navigation.Params{"userId": *id})
		if err != nil {
			return err
		}
		if res == nil {
			return errs.Validation("profile", "not logged in")
		}
		u, err := client.DecodeInto[models.User](res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (@%s) %s\n", u.Name, u.Username, u.Email)
		fmt.Fprintf(out, "%d followers  %d following  %d posts\n", len(u.Followers), len(u.Followings), len(u.Posts))

	case "add-post":
		image := fs.String("image", "", "image url")
		content := fs.String("content", "", "caption")
		tags := fs.String("tags", "", "comma separated tags")
		if err := fs.Parse(args); err != nil {
			return err
		}
		p, err := a.AddPost(ctx, *image, *content, *tags)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Posted %s\n", p.ID)

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func printPost(out io.Writer, p models.Post, userID string) {
	author := p.AuthorID
	if p.Author != nil && p.Author.Username != "" {
		author = "@" + p.Author.Username
	}
	heart := " "
	if p.LikedBy(userID) {
		heart = "*"
	}
	fmt.Fprintf(out, "[%s] %s %s: %s", p.ID, heart, author, p.Content)
	if len(p.Tags) > 0 {
		fmt.Fprintf(out, "  #%s", strings.Join(p.Tags, " #"))
	}
	fmt.Fprintf(out, "  (%d likes, %d comments)\n", len(p.Likes), len(p.Comments))
}

// describe renders err for the terminal the way a transient notification
// would show it.
func describe(err error) string {
	switch errs.KindOf(err) {
	case errs.KindAuth:
		return "authentication failed: " + err.Error()
	case errs.KindNetwork:
		return "could not reach the server: " + err.Error()
	case errs.KindMutation:
		return "action failed and was undone: " + err.Error()
	default:
		if errors.Is(err, navigation.ErrUnreachable) {
			return "log in first"
		}
		return err.Error()
	}
}
